package isis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/frr"
	"grimm.is/confplane/internal/host"
	"grimm.is/confplane/internal/session"
)

const runningFixture = `frr version 8.1
frr defaults traditional
hostname router
!
ip prefix-list EXPORT seq 10 permit 10.0.0.0/8
!
line vty
!`

func isisTree(intfs ...string) *configtree.Node {
	root := configtree.NewNode()
	root.Set("protocols", "isis", "domain", "FOO")
	root.Set("protocols", "isis", "net", "49.0001.1921.6800.1002.00")
	for _, intf := range intfs {
		root.Set("protocols", "isis", "interface", intf)
	}
	return root
}

func commitOf(prev, cur *configtree.Node) *session.Commit {
	return &session.Commit{ID: "test", Running: prev, Candidate: cur}
}

func TestGetConfigInjectsDerivedKeys(t *testing.T) {
	h := testHandler("", nil)

	prev := isisTree("eth0", "eth1")
	cur := isisTree("eth0")

	d := h.GetConfig(commitOf(prev, cur))
	assert.Equal(t, "FOO", d.String("domain"))
	assert.Equal(t, []string{"eth1"}, d.Strings("interface_removed"))
	assert.False(t, d.Has(configtree.KeyDeleted))
	assert.False(t, d.Has(configtree.KeyVRF))
}

func TestGetConfigDeletion(t *testing.T) {
	h := testHandler("", nil)

	prev := isisTree("eth0")
	cur := configtree.NewNode()

	d := h.GetConfig(commitOf(prev, cur))
	assert.True(t, d.Has(configtree.KeyDeleted))
	assert.Equal(t, []string{"eth0"}, d.Strings("interface_removed"))
}

func TestGetConfigVRFTag(t *testing.T) {
	h := testHandler("red", nil)

	cur := configtree.NewNode()
	cur.Set("vrf", "name", "red", "protocols", "isis", "domain", "FOO")

	d := h.GetConfig(commitOf(configtree.NewNode(), cur))
	assert.Equal(t, "red", d.String(configtree.KeyVRF))

	// Deleting the VRF instance must still carry the VRF tag so apply
	// removes the right sections.
	d = h.GetConfig(commitOf(cur, configtree.NewNode()))
	assert.Equal(t, "red", d.String(configtree.KeyVRF))
	assert.True(t, d.Has(configtree.KeyDeleted))
}

func TestGenerateBasic(t *testing.T) {
	h := testHandler("", nil)

	d := baseDict()
	d["metric_style"] = "wide"
	text, err := h.Generate(d)
	require.NoError(t, err)

	assert.Contains(t, text, "router isis FOO")
	assert.Contains(t, text, " net 49.0001.1921.6800.1002.00")
	assert.Contains(t, text, " metric-style wide")
	assert.Contains(t, text, "interface eth0")
	assert.Contains(t, text, " ip router isis FOO")
}

func TestGenerateDeletedIsEmpty(t *testing.T) {
	h := testHandler("", nil)

	text, err := h.Generate(configtree.Dict{configtree.KeyDeleted: ""})
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = h.Generate(configtree.Dict{})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGenerateVRF(t *testing.T) {
	h := testHandler("red", nil)

	d := baseDict()
	d[configtree.KeyVRF] = "red"
	text, err := h.Generate(d)
	require.NoError(t, err)

	assert.Contains(t, text, "router isis FOO vrf red")
	assert.Contains(t, text, "interface eth0 vrf red")
}

func TestGenerateDeterministic(t *testing.T) {
	h := testHandler("", nil)

	d := baseDict()
	d["interface"] = []string{"eth0", "eth1"}
	d["segment_routing"] = configtree.Dict{
		"global_block": configtree.Dict{"low_label_value": "100", "high_label_value": "200"},
	}

	first, err := h.Generate(d)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := h.Generate(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Contains(t, first, " segment-routing global-block 100 200")
}

func TestGeneratePerInterfaceOptions(t *testing.T) {
	h := testHandler("", nil)

	d := baseDict()
	d["interface"] = configtree.Dict{
		"eth0": configtree.Dict{"circuit_type": "level-2-only", "metric": "20"},
	}

	text, err := h.Generate(d)
	require.NoError(t, err)
	assert.Contains(t, text, "interface eth0")
	assert.Contains(t, text, " isis circuit-type level-2-only")
	assert.Contains(t, text, " isis metric 20")
}

func TestGenerateSPFDelayAndRedistribute(t *testing.T) {
	h := testHandler("", nil)

	d := baseDict()
	d["spf_delay_ietf"] = configtree.Dict{
		"init_delay":    "50",
		"short_delay":   "20",
		"long_delay":    "1000",
		"holddown":      "100",
		"time_to_learn": "500",
	}
	d["redistribute"] = configtree.Dict{
		"ipv4": configtree.Dict{
			"connected": configtree.Dict{"level_2": configtree.Dict{"metric": "10"}},
		},
	}

	text, err := h.Generate(d)
	require.NoError(t, err)
	assert.Contains(t, text, " spf-delay-ietf init-delay 50 short-delay 20 long-delay 1000 holddown 100 time-to-learn 500")
	assert.Contains(t, text, " redistribute ipv4 connected level-2 metric 10")
}

func TestRunAddsSections(t *testing.T) {
	shell := &frr.FakeShell{Running: runningFixture}
	h := New(shell, host.StaticQuery{}, "")

	c := commitOf(configtree.NewNode(), isisTree("eth0"))
	require.NoError(t, h.Run(c))

	got := shell.Running
	assert.Contains(t, got, "router isis FOO")
	assert.Contains(t, got, "interface eth0")

	// New sections land before the prefix-list block.
	assert.Less(t, strings.Index(got, "router isis FOO"), strings.Index(got, "ip prefix-list"))
}

func TestRunIdempotent(t *testing.T) {
	shell := &frr.FakeShell{Running: runningFixture}
	h := New(shell, host.StaticQuery{}, "")

	tree := isisTree("eth0", "eth1")
	require.NoError(t, h.Run(commitOf(configtree.NewNode(), tree)))
	first := shell.Running

	require.NoError(t, h.Run(commitOf(tree, tree.Clone())))
	second := shell.Running

	assert.Equal(t, first, second)
	assert.Equal(t, 1, strings.Count(second, "router isis FOO"))
	assert.Equal(t, 1, strings.Count(second, "interface eth0"))
}

func TestRunRemovesDeletedInterfaceSection(t *testing.T) {
	shell := &frr.FakeShell{Running: runningFixture}
	h := New(shell, host.StaticQuery{}, "")

	prev := isisTree("eth0", "eth1")
	require.NoError(t, h.Run(commitOf(configtree.NewNode(), prev)))
	require.Contains(t, shell.Running, "interface eth1")

	cur := isisTree("eth0")
	require.NoError(t, h.Run(commitOf(prev, cur)))

	assert.Contains(t, shell.Running, "interface eth0")
	assert.NotContains(t, shell.Running, "interface eth1")
}

func TestRunFullDeletionRetriesBlankCommit(t *testing.T) {
	shell := &frr.FakeShell{Running: runningFixture}
	h := New(shell, host.StaticQuery{}, "")

	prev := isisTree("eth0")
	require.NoError(t, h.Run(commitOf(configtree.NewNode(), prev)))
	reloadsAfterAdd := len(shell.Reloads)

	require.NoError(t, h.Run(commitOf(prev, configtree.NewNode())))

	assert.NotContains(t, shell.Running, "router isis")
	assert.NotContains(t, shell.Running, "interface eth0")
	// Blank commits are re-issued to work around the daemon reload defect.
	assert.Greater(t, len(shell.Reloads), reloadsAfterAdd+1)

	// Unowned configuration survives the removal.
	assert.Contains(t, shell.Running, "ip prefix-list EXPORT")
	assert.Contains(t, shell.Running, "line vty")
}

func TestRunVerifyFailureShortCircuits(t *testing.T) {
	shell := &frr.FakeShell{Running: runningFixture}
	h := New(shell, host.StaticQuery{}, "")

	cur := configtree.NewNode()
	cur.Set("protocols", "isis", "net", "49.0001.1921.6800.1002.00")

	err := h.Run(commitOf(configtree.NewNode(), cur))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain name/tag")
	assert.Empty(t, shell.Reloads, "apply must not run after verify failure")
}
