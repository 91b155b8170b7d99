package validate_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/utxocoin/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type send struct {
	To     string `json:"to" validate:"required,address"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

func TestCheck(t *testing.T) {
	addr := "04" + strings.Repeat("3f", 64)

	tt := []struct {
		name   string
		val    send
		fields []string
	}{
		{name: "valid", val: send{To: addr, Amount: 10}},
		{name: "upper", val: send{To: "04" + strings.ToUpper(addr[2:]), Amount: 10}},
		{name: "short", val: send{To: "04abc", Amount: 10}, fields: []string{"to"}},
		{name: "zero", val: send{To: addr}, fields: []string{"amount"}},
		{name: "empty", val: send{}, fields: []string{"to", "amount"}},
	}

	t.Log("Given the need to validate requests.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s request.", testID, tst.name)
				{
					err := validate.Check(tst.val)

					if len(tst.fields) == 0 {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
						return
					}

					if !validate.IsFieldErrors(err) {
						t.Fatalf("\t%s\tTest %d:\tShould return field errors: %v", failed, testID, err)
					}

					fields := validate.GetFieldErrors(err).Fields()
					for _, name := range tst.fields {
						if _, exists := fields[name]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould flag field %q, got %v.", failed, testID, name, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould flag the invalid fields.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

