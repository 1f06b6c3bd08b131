package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ibc-ckb/connverifier/verifier"
	"github.com/ibc-ckb/connverifier/verifier/ckb/mock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type verifyResult struct {
	Fixture string `json:"fixture" yaml:"fixture"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Code    int8   `json:"code" yaml:"code"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func verifyCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "verify fixture...",
		Aliases: []string{"vf"},
		Short:   "Verify transaction fixtures and report their exit codes",
		Long: strings.TrimSpace(`Runs the verifier over each transaction fixture and prints the exit code
it terminates with. The command fails when any fixture is rejected.`),
		Args: withUsage(cobra.MinimumNArgs(1)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s verify open_try.yaml
$ %s verify --json --max-parallel 8 fixtures/*.yaml`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}
			yml, err := cmd.Flags().GetBool(flagYAML)
			if err != nil {
				return err
			}
			if jsn && yml {
				return errMultipleOutputFlags
			}

			results := make([]verifyResult, len(args))

			eg, egCtx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(a.maxParallel())
			for i, fixture := range args {
				i, fixture := i, fixture
				eg.Go(func() error {
					if err := egCtx.Err(); err != nil {
						return err
					}
					res, err := a.verifyFixture(fixture)
					if err != nil {
						return err
					}
					results[i] = res
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			switch {
			case jsn:
				out, err := json.Marshal(results)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			case yml:
				out, err := yaml.Marshal(results)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			default:
				for _, res := range results {
					if res.Error == "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", res.Fixture, res.Code)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d (%s)\n", res.Fixture, res.Code, res.Error)
				}
			}

			rejected := 0
			for _, res := range results {
				if res.Code != int8(verifier.CodeOK) {
					rejected++
				}
			}
			if rejected > 0 {
				return errFixturesRejected(rejected, len(results))
			}
			return nil
		},
	}
	return maxParallelFlag(a, yamlFlag(a, jsonFlag(a, cmd)))
}

// verifyFixture loads and verifies one fixture.
// An error is returned only when the fixture itself cannot be read.
func (a *appState) verifyFixture(fixture string) (verifyResult, error) {
	tx, err := mock.Load(fixture)
	if err != nil {
		return verifyResult{}, err
	}

	log := a.Log.With(zap.String("fixture", fixture))
	if tx.Name != "" {
		log = log.With(zap.String("name", tx.Name))
	}

	verr := verifier.New(log).Verify(mock.NewHost(tx))
	res := verifyResult{
		Fixture: fixture,
		Name:    tx.Name,
		Code:    int8(verifier.ExitCode(verr)),
	}
	if verr != nil {
		res.Error = verr.Error()
		log.Info("Transaction rejected", zap.Int8("code", res.Code), zap.Error(verr))
	} else {
		log.Debug("Transaction accepted")
	}
	return res, nil
}
