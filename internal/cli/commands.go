package cli

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cogdata/go-cdf-client/core"
	"github.com/cogdata/go-cdf-client/resources"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func toRecordSet[T any](items []T) (core.RecordSet, error) {
	out := make(core.RecordSet, 0, len(items))
	for _, item := range items {
		p, err := core.NewParamsFromStruct(item)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Record(p))
	}
	return out, nil
}

func renderItems[T any](a *app, cmd *cobra.Command, items []T) error {
	rs, err := toRecordSet(items)
	if err != nil {
		return err
	}
	return a.render(cmd.OutOrStdout(), rs)
}

func newSequencesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sequences",
		Aliases: []string{"seq"},
		Short:   "Inspect sequences and their rows",
	}

	var (
		limit int
		name  string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List sequences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			seqs, err := client.Sequences.List(cmd.Context(), &resources.SequenceFilter{Name: name}, limit)
			if err != nil {
				return err
			}
			return renderItems(a, cmd, seqs)
		},
	}
	list.Flags().IntVar(&limit, "limit", core.DefaultLimit, "Maximum number of sequences (-1 for all)")
	list.Flags().StringVar(&name, "name", "", "Only sequences with this exact name")

	get := &cobra.Command{
		Use:   "get <id|externalId>",
		Short: "Show one sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			seq, err := client.Sequences.Retrieve(cmd.Context(), core.ParseIdentifier(args[0]))
			if err != nil {
				return err
			}
			return renderItems(a, cmd, []resources.Sequence{*seq})
		},
	}

	var query resources.SequenceDataQuery
	rows := &cobra.Command{
		Use:   "rows <id|externalId>",
		Short: "Print the rows of a sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := client.Sequences.Data.Retrieve(cmd.Context(), core.ParseIdentifier(args[0]), query)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), data)
		},
	}
	addQueryFlags(rows, &query)

	var (
		exportQuery  resources.SequenceDataQuery
		format, out  string
		exportNaming string
	)
	export := &cobra.Command{
		Use:   "export <id|externalId>",
		Short: "Write the rows of a sequence to a file",
		Example: `  cdfctl sequences export pump-curve --format arrow --out pump.arrow
  cdfctl sequences export 42 --format msgpack --out rows.msgpack --start 100 --end 200`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			data, err := client.Sequences.Data.Retrieve(cmd.Context(), core.ParseIdentifier(args[0]), exportQuery)
			if err != nil {
				return err
			}
			if err = exportData(data, format, out, resources.ColumnNaming(exportNaming)); err != nil {
				return err
			}
			a.logger.Info("sequence exported", zap.String("sequence", args[0]), zap.Int("rows", data.Len()), zap.String("file", out))
			return nil
		},
	}
	addQueryFlags(export, &exportQuery)
	export.Flags().StringVar(&format, "format", "arrow", "File format (arrow|msgpack|json)")
	export.Flags().StringVar(&out, "out", "", "Output file")
	export.Flags().StringVar(&exportNaming, "column-names", string(resources.NamingExternalIDIfExists), "Arrow column names (externalIdIfExists|externalId|id)")
	_ = export.MarkFlagRequired("out")

	cmd.AddCommand(list, get, rows, export)
	return cmd
}

func addQueryFlags(cmd *cobra.Command, query *resources.SequenceDataQuery) {
	cmd.Flags().Int64Var(&query.Start, "start", 0, "First row number (inclusive)")
	cmd.Flags().Int64Var(&query.End, "end", 0, "Last row number (exclusive, 0 for no bound)")
	cmd.Flags().StringSliceVar(&query.Columns, "columns", nil, "Column external ids to read")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "Maximum number of rows (0 for all)")
}

func exportData(data *resources.SequenceData, format, path string, naming resources.ColumnNaming) (err error) {
	var payload []byte
	switch format {
	case "json":
		payload, err = data.MarshalJSON()
	case "msgpack":
		payload, err = data.MarshalMsgpack()
	case "arrow":
		return exportArrow(data, path, naming)
	default:
		return fmt.Errorf("unknown export format %q (expected arrow, msgpack or json)", format)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func exportArrow(data *resources.SequenceData, path string, naming resources.ColumnNaming) error {
	mem := memory.NewGoAllocator()
	rec, err := data.ToArrow(mem, naming)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		_ = f.Close()
		return err
	}
	if err = w.Write(rec); err != nil {
		_ = w.Close()
		_ = f.Close()
		return err
	}
	if err = w.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newEventsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and search events",
	}

	var (
		limit     int
		eventType string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			events, err := client.Events.List(cmd.Context(), &resources.EventFilter{Type: eventType}, limit)
			if err != nil {
				return err
			}
			return renderItems(a, cmd, events)
		},
	}
	list.Flags().IntVar(&limit, "limit", core.DefaultLimit, "Maximum number of events (-1 for all)")
	list.Flags().StringVar(&eventType, "type", "", "Only events of this type")

	var searchLimit int
	search := &cobra.Command{
		Use:   "search <description>",
		Short: "Fuzzy search events by description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			events, err := client.Events.Search(cmd.Context(), args[0], nil, searchLimit)
			if err != nil {
				return err
			}
			return renderItems(a, cmd, events)
		},
	}
	search.Flags().IntVar(&searchLimit, "limit", core.DefaultLimit, "Maximum number of events")

	cmd.AddCommand(list, search)
	return cmd
}

func newTypesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Inspect types (playground API)",
	}
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			types, err := client.Types.List(cmd.Context(), nil, limit)
			if err != nil {
				return err
			}
			return renderItems(a, cmd, types)
		},
	}
	list.Flags().IntVar(&limit, "limit", core.DefaultLimit, "Maximum number of types (-1 for all)")
	cmd.AddCommand(list)
	return cmd
}

func newFilesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Transfer files",
	}
	var dir string
	download := &cobra.Command{
		Use:   "download <id|externalId>...",
		Short: "Download files into a directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]core.Identifier, 0, len(args))
			for _, arg := range args {
				ids = append(ids, core.ParseIdentifier(arg))
			}
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			return client.Files.Download(cmd.Context(), dir, core.Of(ids...))
		},
	}
	download.Flags().StringVar(&dir, "dir", ".", "Target directory")
	cmd.AddCommand(download)
	return cmd
}
