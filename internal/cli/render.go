package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zoobzio/spot"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Schema   string
	Entity   string
	Dialect  string
	Where    []string
	OrWhere  []string
	Joiner   string
	Scopes   []string
	Select   []string
	Group    []string
	Order    []string
	Search   []string
	Term     string
	Boolean  bool
	Limit    int
	Offset   int
	NoQuote  bool
	Relation []string
}

// RenderResult is the rendered statement.
type RenderResult struct {
	Entity    string   `json:"entity"`
	Dialect   string   `json:"dialect"`
	SQL       string   `json:"sql"`
	Args      []any    `json:"args"`
	Relations []string `json:"relations,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a query for an entity without executing it",
		Long: `Build a query from condition groups and print the SQL and bound arguments.

Each --where and --or-where value is a JSON object of conditions. Keys are a
field name optionally followed by an operator token; order is preserved.

Examples:
  spot render --schema blog.yaml --entity post --where '{"title :like":"%go%"}'
  spot render --schema blog.yaml --entity post --dialect postgres --where '{"status":"draft","views >":10}' --joiner OR
  spot render --schema blog.yaml --entity post --scope published --order "created desc" --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "path to YAML schema (required)")
	_ = cmd.MarkFlagRequired("schema")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "entity name (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "mysql", "SQL dialect (mysql|postgres|sqlite3)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "condition group as a JSON object (repeatable)")
	cmd.Flags().StringArrayVar(&opts.OrWhere, "or-where", nil, "condition group OR-ed onto the where clause (repeatable)")
	cmd.Flags().StringVar(&opts.Joiner, "joiner", "AND", "joiner inside each condition group (AND|OR)")
	cmd.Flags().StringArrayVar(&opts.Scopes, "scope", nil, "named scope or custom method to apply (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "fields to select")
	cmd.Flags().StringSliceVar(&opts.Group, "group", nil, "fields to group by")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, `sort term "field [asc|desc]" (repeatable)`)
	cmd.Flags().StringSliceVar(&opts.Search, "search", nil, "fields to search")
	cmd.Flags().StringVar(&opts.Term, "term", "", "search term")
	cmd.Flags().BoolVar(&opts.Boolean, "boolean", false, "use fulltext boolean mode when fulltext applies")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "row limit (-1 for none)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "row offset")
	cmd.Flags().BoolVar(&opts.NoQuote, "no-quote", false, "disable identifier quoting")
	cmd.Flags().StringArrayVar(&opts.Relation, "with", nil, "relation to record for eager loading (repeatable)")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command) error {
	schema, err := spot.LoadSchemaFile(opts.Schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}
	entity, ok := schema.Entity(opts.Entity)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("entity %q not found in %s", opts.Entity, opts.Schema))
	}
	platform, err := spot.PlatformFor(opts.Dialect)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid dialect", err)
	}
	mapper, err := spot.NewMapper(entity, spot.NewConnection(nil, platform))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid entity", err)
	}

	q, err := buildQuery(cmd, opts, spot.NewFactory().Query(mapper))
	if err != nil {
		return err
	}

	sql, args, err := q.ToSQL()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render query", err)
	}
	if args == nil {
		args = []any{}
	}

	result := RenderResult{
		Entity:    entity.Name,
		Dialect:   platform.Dialect(),
		SQL:       sql,
		Args:      args,
		Relations: q.Relations(),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return outputRenderText(cmd, result, opts.Verbose)
}

func buildQuery(cmd *cobra.Command, opts *RenderOptions, q *spot.Query) (*spot.Query, error) {
	joiner := spot.Joiner(strings.ToUpper(opts.Joiner))

	for _, raw := range opts.Where {
		conds, err := parseConditions(raw)
		if err != nil {
			return nil, err
		}
		q.Where(conds, joiner)
	}
	for _, raw := range opts.OrWhere {
		conds, err := parseConditions(raw)
		if err != nil {
			return nil, err
		}
		q.OrWhere(conds, joiner)
	}
	for _, name := range opts.Scopes {
		if _, err := q.Call(cmd.Context(), name); err != nil {
			return nil, WrapExitError(ExitFailure, fmt.Sprintf("failed to apply %q", name), err)
		}
	}
	if len(opts.Search) > 0 {
		q.Search(opts.Search, opts.Term, spot.SearchOptions{Boolean: opts.Boolean})
	}
	if len(opts.Select) > 0 {
		q.Select(opts.Select...)
	}
	if len(opts.Group) > 0 {
		q.Group(opts.Group...)
	}
	for _, term := range opts.Order {
		if strings.TrimSpace(term) == "" {
			continue
		}
		q.Order(parseSort(term))
	}
	if opts.Limit >= 0 {
		q.Limit(opts.Limit)
	}
	if opts.Offset != 0 {
		q.Offset(opts.Offset)
	}
	if len(opts.Relation) > 0 {
		q.With(opts.Relation...)
	}
	q.NoQuote(opts.NoQuote)

	if err := q.Err(); err != nil {
		return nil, WrapExitError(ExitFailure, "failed to build query", err)
	}
	return q, nil
}

func parseConditions(raw string) (spot.Conditions, error) {
	var conds spot.Conditions
	if err := json.Unmarshal([]byte(raw), &conds); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid condition group %q", raw), err)
	}
	return conds, nil
}

// parseSort reads "field", "field asc" or "field desc".
func parseSort(term string) spot.Sort {
	parts := strings.Fields(term)
	if len(parts) == 1 {
		return spot.Asc(parts[0])
	}
	return spot.Sort{Field: parts[0], Direction: spot.Direction(parts[1])}
}

func outputRenderText(cmd *cobra.Command, result RenderResult, verbose bool) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.SQL)

	if len(result.Args) > 0 {
		rows := make([][]string, len(result.Args))
		for i, arg := range result.Args {
			rows[i] = []string{fmt.Sprint(i + 1), fmt.Sprint(arg), fmt.Sprintf("%T", arg)}
		}
		fmt.Fprintln(out)
		writeTable(out, []string{"#", "Value", "Type"}, rows)
	}

	if verbose {
		fmt.Fprintf(out, "\nentity: %s\ndialect: %s\n", result.Entity, result.Dialect)
		if len(result.Relations) > 0 {
			fmt.Fprintf(out, "relations: %s\n", strings.Join(result.Relations, ", "))
		}
	}
	return nil
}
