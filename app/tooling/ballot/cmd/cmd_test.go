package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ballot/app/services/devnode/handlers"
	"github.com/ardanlabs/ballot/foundation/devchain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

type cliTest struct {
	url  string
	keys string
}

func newCLITest(t *testing.T) *cliTest {
	t.Helper()

	keys := t.TempDir()

	owner, err := keystore.Generate(keys, "owner")
	if err != nil {
		t.Fatalf("generating owner: %s", err)
	}
	benef, err := keystore.Generate(keys, "beneficiary")
	if err != nil {
		t.Fatalf("generating beneficiary: %s", err)
	}

	c, err := devchain.New(devchain.Config{
		Genesis: devchain.Genesis{
			Owner:       owner.Address(),
			Beneficiary: benef.Address(),
			Balances:    map[string]uint64{owner.Address(): 100},
		},
		FinalityDepth: 1,
	})
	if err != nil {
		t.Fatalf("starting chain: %s", err)
	}

	worker := devchain.Run(c, 10*time.Millisecond)

	srv := httptest.NewServer(handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      logger.NewNop(),
		Chain:    c,
	}))

	t.Cleanup(func() {
		srv.Close()
		worker.Shutdown()
		c.Shutdown()
	})

	return &cliTest{url: srv.URL, keys: keys}
}

// exec runs the tool as the named account and returns what it printed.
func (ct *cliTest) exec(t *testing.T, account string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"-a", account, "-p", ct.keys, "-u", ct.url, "-t", "10s"}, args...))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func Test_CLI(t *testing.T) {
	t.Log("Given the need to use the contracts from the command line.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the owner runs a proposal and donates.", testID)
		{
			ct := newCLITest(t)

			steps := []struct {
				name string
				args []string
				want string
			}{
				{"create a proposal", []string{"propose", "new logo"}, "OK: Successfully created proposal!"},
				{"register", []string{"register", "owner"}, "OK: Successfully registered user!"},
				{"open the proposal", []string{"activate", "0"}, "OK: Successfully changed proposal status!"},
				{"vote", []string{"vote", "0", "Aye"}, "OK: Successfully voted!"},
				{"list proposals", []string{"proposals"}, "new logo"},
				{"list users", []string{"users"}, "Name: owner"},
				{"donate", []string{"donate", "5"}, "OK: Successfully donated 5"},
				{"see the total", []string{"total"}, "Total: 5"},
				{"see the total again", []string{"total"}, "Total: 5"},
				{"see the donation", []string{"donations", "1"}, "Amount: 5"},
				{"see the balance", []string{"balance"}, "Balance: 95"},
			}

			for _, step := range steps {
				out, err := ct.exec(t, "owner", step.args...)
				if err != nil || !strings.Contains(out, step.want) {
					t.Fatalf("\t%s\tTest %d:\tShould be able to %s: %q %v", failed, testID, step.name, out, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to %s.", success, testID, step.name)
			}
		}

		testID++
		t.Logf("\tTest %d:\tWhen a call is rejected by the contract.", testID)
		{
			ct := newCLITest(t)

			out, err := ct.exec(t, "beneficiary", "propose", "not mine")
			if err == nil || !strings.Contains(out, "ERROR: Error while creating proposal. Try again.") {
				t.Fatalf("\t%s\tTest %d:\tShould report the failure: %q %v", failed, testID, out, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the failure.", success, testID)

			// The command ran before under a context that has since ended.
			out, err = ct.exec(t, "beneficiary", "propose", "not mine")
			if !strings.Contains(out, "ERROR: Error while creating proposal. Try again.") || strings.Contains(out, "context canceled") {
				t.Fatalf("\t%s\tTest %d:\tShould run again under a new context: %q %v", failed, testID, out, err)
			}
			t.Logf("\t%s\tTest %d:\tShould run again under a new context.", success, testID)

			if _, err := ct.exec(t, "nobody", "total"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown account.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unknown account.", success, testID)
		}
	}
}
