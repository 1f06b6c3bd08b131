package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ibc-ckb/connverifier/verifier"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Version defines the application version (defined at compile time)
	Version = ""
	Commit  = ""
)

const unknownVersion = "(unable to determine)"

// verifierDeps are the modules whose versions decide what the verifier accepts.
var verifierDeps = map[string]string{
	"github.com/cosmos/ibc-go/v3":      "ibc-go",
	"github.com/confio/ics23/go":       "ics23",
	"github.com/ethereum/go-ethereum":  "rlp",
	"github.com/cosmos/cosmos-sdk":     "cosmos-sdk",
	"github.com/tendermint/tendermint": "tendermint",
}

type versionInfo struct {
	Version    string            `json:"version" yaml:"version"`
	Commit     string            `json:"commit" yaml:"commit"`
	Codespace  string            `json:"codespace" yaml:"codespace"`
	ErrorCodes int               `json:"error-codes" yaml:"error-codes"`
	Deps       map[string]string `json:"deps" yaml:"deps"`
	Go         string            `json:"go" yaml:"go"`
}

func newVersionInfo() versionInfo {
	deps := make(map[string]string, len(verifierDeps))
	for _, name := range verifierDeps {
		deps[name] = unknownVersion
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if name, ok := verifierDeps[dep.Path]; ok {
				deps[name] = dep.Version
			}
		}
	}

	return versionInfo{
		Version:    Version,
		Commit:     Commit,
		Codespace:  verifier.Codespace,
		ErrorCodes: len(verifier.Codes()),
		Deps:       deps,
		Go:         fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

func getVersionCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print the connverify version and the versions of the libraries it verifies with",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s version --json
$ %s v`,
			appName, appName,
		)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			info := newVersionInfo()
			var bz []byte
			if jsn {
				bz, err = json.Marshal(info)
			} else {
				bz, err = yaml.Marshal(&info)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}

	return jsonFlag(a, cmd)
}
