/*
Package cdf_client is a Go client for the Cognite Data Fusion REST API.

It wraps the platform's JSON endpoints in typed resource clients for assets, events,
sequences (including their row data), types and files. Every client supports the
operations the platform exposes for it (create, retrieve, list with cursor pagination,
update, delete and search) and splits large requests into concurrently executed chunks.

The entry point is NewCogniteClient, configured with a Config that carries the project,
credentials (API key or an OAuth2 token source), API version, timeouts and worker limits.
Configuration can also be loaded from a YAML file and CDF_* environment variables with LoadConfig.

	client, err := cdf_client.NewCogniteClient(&cdf_client.Config{Project: "publicdata", ApiKey: key})
	if err != nil {
		return err
	}
	data, err := client.Sequences.Data.Retrieve(ctx, cdf_client.ByExternalId("pump-curve"), resources.SequenceDataQuery{})
*/
package cdf_client
