package navigate

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

func fixture() (garden.Registry, flow.Graph) {
	omni := &garden.Garden{
		Name:         "Omni",
		Version:      "1",
		Supergardens: []garden.Reference{{Name: "Group"}},
		Subgardens:   []garden.Reference{{Name: "Labs"}, {Name: "Missing"}},
		Items:        []garden.Item{{Name: "CLI"}},
	}
	labs := &garden.Garden{Name: "Labs", Version: "1"}
	group := &garden.Garden{Name: "Group", Version: "1"}
	reg := garden.NewRegistry(omni, labs, group)
	return reg, flow.Build(omni, reg, flow.Options{})
}

func TestNavigable(t *testing.T) {
	_, g := fixture()
	tests := []struct {
		id   string
		want string
	}{
		{"ecosystem-omni", ""},
		{"item-omni/direct/cli", ""},
		{"reference-up-omni/group", "Group"},
		{"reference-down-omni/labs", "Labs"},
	}
	for _, tt := range tests {
		n := g.Node(tt.id)
		if n == nil {
			t.Fatalf("node %q missing", tt.id)
		}
		if got := Target(n); got != tt.want {
			t.Errorf("Target(%s) = %q, want %q", tt.id, got, tt.want)
		}
		if got := Navigable(n); got != (tt.want != "") {
			t.Errorf("Navigable(%s) = %v", tt.id, got)
		}
	}
	if Navigable(nil) {
		t.Error("Navigable(nil) = true")
	}
}

func TestNavigate(t *testing.T) {
	reg, g := fixture()
	r := NewResolver(reg, 0, nil)
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	req, err := r.Navigate(ctx, g.Node("reference-down-omni/labs"), t0)
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if req.Garden.Name != "Labs" || req.From != "reference-down-omni/labs" || req.Via != flow.RelationSubgarden {
		t.Errorf("Navigate() = %+v", req)
	}

	_, err = r.Navigate(ctx, g.Node("reference-up-omni/group"), t0.Add(100*time.Millisecond))
	if !errors.Is(err, errors.ErrCodeNavigationThrottled) {
		t.Fatalf("second click error = %v, want NAVIGATION_THROTTLED", err)
	}
	var te *errors.ThrottledError
	if !errors.As(err, &te) {
		t.Fatalf("error %v does not carry a ThrottledError", err)
	}
	if te.RetryAfterMillis < 350 || te.RetryAfterMillis > 400 {
		t.Errorf("RetryAfterMillis = %d, want about 400", te.RetryAfterMillis)
	}

	req, err = r.Navigate(ctx, g.Node("reference-up-omni/group"), t0.Add(DefaultCooldown+time.Millisecond))
	if err != nil {
		t.Fatalf("after cooldown error = %v", err)
	}
	if req.Garden.Name != "Group" || req.Via != flow.RelationSupergarden {
		t.Errorf("Navigate() = %+v", req)
	}
}

func TestNavigateErrorOrder(t *testing.T) {
	reg, g := fixture()
	ctx := context.Background()
	t0 := time.Unix(1700000000, 0)

	r := NewResolver(reg, time.Second, nil)
	if _, err := r.Navigate(ctx, g.Node("item-omni/direct/cli"), t0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("item click error = %v, want INVALID_INPUT", err)
	}
	if _, err := r.Navigate(ctx, nil, t0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil click error = %v, want INVALID_INPUT", err)
	}

	// Non-navigable clicks above did not start the cooldown.
	if _, err := r.Navigate(ctx, g.Node("reference-down-omni/missing"), t0); !errors.Is(err, errors.ErrCodeGardenNotFound) {
		t.Errorf("missing target error = %v, want GARDEN_NOT_FOUND", err)
	}

	// Throttling is checked before resolution.
	if _, err := r.Navigate(ctx, g.Node("reference-down-omni/missing"), t0.Add(time.Millisecond)); !errors.Is(err, errors.ErrCodeNavigationThrottled) {
		t.Errorf("throttled missing target error = %v, want NAVIGATION_THROTTLED", err)
	}
}

func TestNavigateNilRegistry(t *testing.T) {
	_, g := fixture()
	r := NewResolver(nil, 0, nil)
	_, err := r.Navigate(context.Background(), g.Node("reference-down-omni/labs"), time.Now())
	if !errors.Is(err, errors.ErrCodeGardenNotFound) {
		t.Errorf("Navigate() error = %v, want GARDEN_NOT_FOUND", err)
	}
}

func TestThrottledClicksDoNotExtendCooldown(t *testing.T) {
	reg, g := fixture()
	r := NewResolver(reg, 500*time.Millisecond, nil)
	ctx := context.Background()
	n := g.Node("reference-down-omni/labs")
	t0 := time.Unix(1700000000, 0)

	if _, err := r.Navigate(ctx, n, t0); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 4; i++ {
		if _, err := r.Navigate(ctx, n, t0.Add(time.Duration(i)*100*time.Millisecond)); err == nil {
			t.Fatalf("click at %dms accepted inside cooldown", i*100)
		}
	}
	if _, err := r.Navigate(ctx, n, t0.Add(501*time.Millisecond)); err != nil {
		t.Errorf("click at 501ms error = %v, want accepted", err)
	}
}
