package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetsAPI_DeleteRecursive(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) { return http.StatusOK, map[string]any{} })
	api := NewAssetsAPI(newTestRest(t, fp))

	require.NoError(t, api.Delete(context.Background(), core.Of(core.ById(1)), true))
	require.NoError(t, api.Delete(context.Background(), core.Of(core.ByExternalId("root")), false))

	calls := fp.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, apiPrefix+"/assets/delete", calls[0].Path)
	assert.Equal(t, map[string]any{"items": []any{map[string]any{"id": num("1")}}, "recursive": true}, calls[0].Body)
	assert.NotContains(t, calls[1].Body, "recursive")
}

func TestAssetsAPI_CreateListSearch(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{"items": []any{map[string]any{
			"id": 5, "name": "pump", "parentId": 1, "rootId": 1, "metadata": map[string]any{"site": "north"},
		}}}
	})
	api := NewAssetsAPI(newTestRest(t, fp))
	ctx := context.Background()

	created, err := api.Create(ctx, Asset{Name: "pump", ParentExternalID: "plant"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created[0].ID)
	assert.Equal(t, "north", created[0].Metadata["site"])

	listed, err := api.List(ctx, &AssetFilter{Name: "pump", ParentIDs: []int64{1}}, core.Unlimited)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	found, err := api.Search(ctx, AssetSearch{Name: "pu"}, nil, 5)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	calls := fp.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, map[string]any{"name": "pump", "parentExternalId": "plant"}, firstItem(calls[0].Body))
	assert.Equal(t, map[string]any{"name": "pump", "parentIds": []any{num("1")}}, calls[1].Body["filter"])
	assert.Equal(t, num("1000"), calls[1].Body["limit"])
	assert.Equal(t, map[string]any{"search": map[string]any{"name": "pu"}, "limit": num("5")}, calls[2].Body)
}

func TestEventsAPI_Search(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		return http.StatusOK, map[string]any{"items": []any{map[string]any{"id": 1, "description": "pump failure"}}}
	})
	api := NewEventsAPI(newTestRest(t, fp))

	found, err := api.Search(context.Background(), "pump", &EventFilter{Type: "alarm", StartTime: Between(10, 20)}, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "pump failure", found[0].Description)

	call := fp.calls()[0]
	assert.Equal(t, apiPrefix+"/events/search", call.Path)
	assert.Equal(t, map[string]any{
		"search": map[string]any{"description": "pump"},
		"filter": map[string]any{
			"type":      "alarm",
			"startTime": map[string]any{"min": num("10"), "max": num("20")},
		},
		"limit": num("25"),
	}, call.Body)
}

func TestEventsAPI_UpdateAndPages(t *testing.T) {
	fp := newFakePlatform(t, func(req recordedRequest) (int, any) {
		if req.Path == apiPrefix+"/events/list" && req.Body["cursor"] == nil {
			return http.StatusOK, map[string]any{"items": []any{map[string]any{"id": 1}}, "nextCursor": "c"}
		}
		return http.StatusOK, map[string]any{"items": []any{map[string]any{"id": 2}}}
	})
	api := NewEventsAPI(newTestRest(t, fp))
	ctx := context.Background()

	_, err := api.Update(ctx,
		NewEventUpdate(core.ByExternalId("evt")).AssetIDs().Add([]int64{4}).Metadata().Remove([]string{"old"}).EndTime().SetNull(),
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"externalId": "evt",
		"update": map[string]any{
			"assetIds": map[string]any{"add": []any{num("4")}},
			"metadata": map[string]any{"remove": []any{"old"}},
			"endTime":  map[string]any{"setNull": true},
		},
	}, firstItem(fp.calls()[0].Body))

	var ids []int64
	for page, err := range api.Pages(ctx, nil, 1) {
		require.NoError(t, err)
		for _, e := range page {
			ids = append(ids, e.ID)
		}
	}
	assert.Equal(t, []int64{1, 2}, ids)
}
