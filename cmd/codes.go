package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ibc-ckb/connverifier/verifier"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type codeInfo struct {
	Code        int8   `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

func codesCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List the exit codes a verification can terminate with",
		Args:  withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s codes
$ %s codes --json`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			yml, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}

			codes := verifier.Codes()
			infos := make([]codeInfo, 0, len(codes)+1)
			infos = append(infos, codeInfo{Code: int8(verifier.CodeOK), Description: "accepted"})
			for _, e := range codes {
				infos = append(infos, codeInfo{Code: int8(e.ABCICode()), Description: e.Error()})
			}

			switch {
			case yml && jsn:
				return errMultipleOutputFlags
			case jsn:
				out, err := json.Marshal(infos)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			case yml:
				out, err := yaml.Marshal(infos)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			default:
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, info := range infos {
					fmt.Fprintf(w, "%d\t%s\n", info.Code, info.Description)
				}
				return w.Flush()
			}
			return nil
		},
	}
	return yamlFlag(a, jsonFlag(a, cmd))
}
