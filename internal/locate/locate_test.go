package locate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeProber resolves locators from a fixed table and records the probe order.
type fakeProber struct {
	hits   map[Locator]string
	errs   map[Locator]error
	probed []Locator
}

func (f *fakeProber) Probe(ctx context.Context, l Locator) (string, bool, error) {
	f.probed = append(f.probed, l)
	if err := f.errs[l]; err != nil {
		return "", false, err
	}
	sel, ok := f.hits[l]
	return sel, ok, nil
}

func TestFindFirstMatch_FirstSuccessWins(t *testing.T) {
	p := &fakeProber{hits: map[Locator]string{
		Text("Requests"):        `[data-cb-ref="b"]`,
		Role("tab", "Requests"): `[data-cb-ref="c"]`,
	}}

	m, ok := FindFirstMatch(context.Background(), p, zaptest.NewLogger(t), Candidates(
		CSS("[data-testid=requests-tab]"),
		Text("Requests"),
		Role("tab", "Requests"),
	))

	require.True(t, ok)
	assert.Equal(t, Text("Requests"), m.Locator)
	assert.Equal(t, `[data-cb-ref="b"]`, m.Selector)
	assert.Len(t, p.probed, 2, "later candidates are not probed")
}

func TestFindFirstMatch_ErrorsAreSoft(t *testing.T) {
	bad := CSS("div[")
	p := &fakeProber{
		errs: map[Locator]error{bad: errors.New("SyntaxError")},
		hits: map[Locator]string{Placeholder("From"): "#from"},
	}

	m, ok := FindFirstMatch(context.Background(), p, nil, Candidates(bad, Placeholder("From")))
	require.True(t, ok)
	assert.Equal(t, "#from", m.Selector)
}

func TestFindFirstMatch_NoneMatch(t *testing.T) {
	p := &fakeProber{}
	_, ok := FindFirstMatch(context.Background(), p, nil, Candidates(Text("a"), Label("b"), Name("c")))
	assert.False(t, ok)
	assert.Len(t, p.probed, 3)

	_, ok = FindFirstMatch(context.Background(), p, nil, nil)
	assert.False(t, ok)
}

func TestFindFirstMatch_StopsOnCancel(t *testing.T) {
	p := &fakeProber{hits: map[Locator]string{Text("x"): "#x"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := FindFirstMatch(ctx, p, nil, Candidates(Text("x")))
	assert.False(t, ok)
	assert.Empty(t, p.probed)
}

func TestMatcherFunc(t *testing.T) {
	calls := 0
	custom := MatcherFunc(func(ctx context.Context, p Prober) (Match, bool, error) {
		calls++
		return Match{Selector: "#custom"}, true, nil
	})

	m, ok := FindFirstMatch(context.Background(), &fakeProber{}, nil, []Matcher{custom, Text("unused")})
	require.True(t, ok)
	assert.Equal(t, "#custom", m.Selector)
	assert.Equal(t, 1, calls)
}

func TestProbeScript(t *testing.T) {
	script, err := ProbeScript(Role("button", "Submit"), "ref-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "(function(spec) {"))
	assert.Contains(t, script, `{"by":"role","value":"button","name":"Submit","ref":"ref-1"}`)
	assert.Contains(t, script, RefAttribute)

	quoted, err := ProbeScript(Text(`He said "hi"`), "r")
	require.NoError(t, err)
	assert.Contains(t, quoted, `"value":"He said \"hi\""`, "values are JSON-escaped")

	_, err = ProbeScript(Locator{By: "xpath", Value: "//a"}, "r")
	assert.ErrorContains(t, err, "unsupported strategy")

	_, err = ProbeScript(CSS(""), "r")
	assert.ErrorContains(t, err, "empty css locator")
}

func TestRefHelpers(t *testing.T) {
	a, b := NewRef(), NewRef()
	assert.NotEqual(t, a, b)
	assert.Equal(t, `[data-cb-ref="abc"]`, SelectorForRef("abc"))
}

func TestLocator_String(t *testing.T) {
	assert.Equal(t, `text="Create"`, Text("Create").String())
	assert.Equal(t, `role=tab[name~"Requests"]`, Role("tab", "Requests").String())
}
