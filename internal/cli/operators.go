package cli

import (
	"github.com/spf13/cobra"

	"github.com/zoobzio/spot"
)

// OperatorInfo describes one registered operator token.
type OperatorInfo struct {
	Token string `json:"token"`
	Kind  string `json:"kind"`
}

// NewOperatorsCommand creates the operators command.
func NewOperatorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List the registered where operators",
		Long: `List every operator token in the default registry with the kind it maps to.

Examples:
  spot operators
  spot operators --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperators(rootOpts, cmd, spot.NewOperatorRegistry())
		},
	}
}

func runOperators(opts *RootOptions, cmd *cobra.Command, registry *spot.OperatorRegistry) error {
	tokens := registry.Tokens()
	infos := make([]OperatorInfo, 0, len(tokens))
	for _, token := range tokens {
		kind, _ := registry.Kind(token)
		infos = append(infos, OperatorInfo{Token: token, Kind: kind.String()})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), infos)
	}

	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.Token, info.Kind}
	}
	writeTable(cmd.OutOrStdout(), []string{"Token", "Kind"}, rows)
	return nil
}
