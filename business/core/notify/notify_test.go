package notify_test

import (
	"bytes"
	"testing"

	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/foundation/events"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Notify(t *testing.T) {
	t.Log("Given the need to deliver toasts.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen sending through the hub.", testID)
		{
			evts := events.New[notify.Toast](0)
			ch := evts.Acquire("browser")

			hub := notify.NewHub(evts)
			hub.Success("Successfully voted!")
			hub.Error("Error while voting. Try again.")

			first, second := <-ch, <-ch
			if first.Level != notify.LevelSuccess || first.Message != "Successfully voted!" {
				t.Fatalf("\t%s\tTest %d:\tShould receive the success toast: %+v", failed, testID, first)
			}
			if second.Level != notify.LevelError || second.Time.IsZero() {
				t.Fatalf("\t%s\tTest %d:\tShould receive the error toast: %+v", failed, testID, second)
			}
			t.Logf("\t%s\tTest %d:\tShould receive both toasts in order.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen printing to a console.", testID)
		{
			var buf bytes.Buffer
			c := notify.NewConsole(&buf)
			c.Success("done")
			c.Error("broken")

			if exp := "OK: done\nERROR: broken\n"; buf.String() != exp {
				t.Fatalf("\t%s\tTest %d:\tShould print one line per toast: %q", failed, testID, buf.String())
			}
			t.Logf("\t%s\tTest %d:\tShould print one line per toast.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen recording.", testID)
		{
			var r notify.Recorder
			r.Error("one")
			r.Error("two")
			r.Success("three")

			if r.Count(notify.LevelError) != 2 || r.Count(notify.LevelSuccess) != 1 || len(r.Toasts()) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould count toasts per level.", failed, testID)
			}
			r.Reset()
			if len(r.Toasts()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould forget toasts on reset.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould record toasts.", success, testID)
		}
	}
}
