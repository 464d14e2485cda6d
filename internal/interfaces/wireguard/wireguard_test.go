package wireguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/session"
)

func wgTree(names ...string) *configtree.Node {
	root := configtree.NewNode()
	for _, name := range names {
		root.Set("interfaces", "wireguard", name, "address", "192.0.2.1/24")
		root.Set("interfaces", "wireguard", name, "peer", "office", "pubkey", peerPubkey)
		root.Set("interfaces", "wireguard", name, "peer", "office", "allowed_ips", "0.0.0.0/0")
	}
	return root
}

func wgCommit(prev, cur *configtree.Node) *session.Commit {
	return &session.Commit{ID: "test", Running: prev, Candidate: cur}
}

func TestGetConfigInjectsPeerRemoved(t *testing.T) {
	h, _ := testWGHandler(t)

	prev := wgTree("wg0")
	prev.Set("interfaces", "wireguard", "wg0", "peer", "laptop", "pubkey", peerPubkey)
	prev.Set("interfaces", "wireguard", "wg0", "peer", "laptop", "allowed_ips", "10.0.0.0/8")
	cur := wgTree("wg0")

	d := h.GetConfig(wgCommit(prev, cur), "wg0")
	assert.Equal(t, []string{"laptop"}, d.Strings("peer_removed"))
	assert.False(t, d.Has(configtree.KeyDeleted))
}

func TestGetConfigDeletion(t *testing.T) {
	h, _ := testWGHandler(t)

	d := h.GetConfig(wgCommit(wgTree("wg0"), configtree.NewNode()), "wg0")
	assert.True(t, d.Has(configtree.KeyDeleted))
}

func TestGeneratePlan(t *testing.T) {
	h, _ := testWGHandler(t)

	d := baseWGDict()
	d["address"] = []string{"192.0.2.1/24", "2001:db8::1/64"}
	d["port"] = "51820"
	d["fwmark"] = "32"
	d["mtu"] = "1420"
	peer := d.Sub("peer").Sub("office")
	peer["preshared_key"] = peerPSK
	peer["endpoint"] = "192.0.2.10:51820"
	peer["persistent_keepalive"] = "25"
	peer["allowed_ips"] = []string{"0.0.0.0/0", "::/0"}

	plan, err := h.Generate(d, "wg0")
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, "wg0", plan.Name)
	assert.Equal(t, []string{"192.0.2.1/24", "2001:db8::1/64"}, plan.Addresses)
	assert.Equal(t, 1420, plan.MTU)

	conf := plan.Config
	require.NotNil(t, conf.PrivateKey)
	assert.True(t, conf.ReplacePeers)
	require.NotNil(t, conf.ListenPort)
	assert.Equal(t, 51820, *conf.ListenPort)
	require.NotNil(t, conf.FirewallMark)
	assert.Equal(t, 32, *conf.FirewallMark)

	require.Len(t, conf.Peers, 1)
	p := conf.Peers[0]
	assert.Equal(t, peerPubkey, p.PublicKey.String())
	require.NotNil(t, p.PresharedKey)
	assert.Equal(t, peerPSK, p.PresharedKey.String())
	require.NotNil(t, p.Endpoint)
	assert.Equal(t, "192.0.2.10:51820", p.Endpoint.String())
	require.NotNil(t, p.PersistentKeepaliveInterval)
	assert.Equal(t, 25*time.Second, *p.PersistentKeepaliveInterval)
	assert.True(t, p.ReplaceAllowedIPs)
	require.Len(t, p.AllowedIPs, 2)
	assert.Equal(t, "0.0.0.0/0", p.AllowedIPs[0].String())
	assert.Equal(t, "::/0", p.AllowedIPs[1].String())
}

func TestGenerateDeletedPlanIsNil(t *testing.T) {
	h, _ := testWGHandler(t)

	plan, err := h.Generate(configtree.Dict{configtree.KeyDeleted: ""}, "wg0")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestRunConfiguresChangedInterfaces(t *testing.T) {
	h, dev := testWGHandler(t)

	require.NoError(t, h.Run(wgCommit(configtree.NewNode(), wgTree("wg0", "wg1"))))

	require.Len(t, dev.Ensured, 2)
	assert.Equal(t, "wg0", dev.Ensured[0].Name)
	assert.Equal(t, "wg1", dev.Ensured[1].Name)
	assert.Empty(t, dev.Removed)
}

func TestRunSkipsUnchangedInterfaces(t *testing.T) {
	h, dev := testWGHandler(t)

	prev := wgTree("wg0", "wg1")
	cur := prev.Clone()
	cur.Set("interfaces", "wireguard", "wg1", "mtu", "1420")

	require.NoError(t, h.Run(wgCommit(prev, cur)))

	require.Len(t, dev.Ensured, 1)
	assert.Equal(t, "wg1", dev.Ensured[0].Name)
}

func TestRunRemovesDeletedInterface(t *testing.T) {
	h, dev := testWGHandler(t)

	require.NoError(t, h.Run(wgCommit(wgTree("wg0", "wg1"), wgTree("wg0"))))

	assert.Equal(t, []string{"wg1"}, dev.Removed)
	assert.Empty(t, dev.Ensured)
}

func TestRunVerifyFailureShortCircuits(t *testing.T) {
	h, dev := testWGHandler(t)

	cur := wgTree("wg0")
	cur.Delete("interfaces", "wireguard", "wg0", "address")

	err := h.Run(wgCommit(configtree.NewNode(), cur))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IP address is mandatory")
	assert.Empty(t, dev.Ensured)
}

func TestKeystoreGenerate(t *testing.T) {
	ks := NewKeystore(t.TempDir())

	assert.False(t, ks.Exists("uplink"))
	pub, err := ks.Generate("uplink")
	require.NoError(t, err)
	assert.True(t, ks.Exists("uplink"))

	priv, err := ks.PrivateKey("uplink")
	require.NoError(t, err)
	assert.Equal(t, pub, priv.PublicKey().String())

	loaded, err := ks.PublicKey("uplink")
	require.NoError(t, err)
	assert.Equal(t, pub, loaded.String())

	_, err = ks.Generate("uplink")
	assert.Error(t, err, "existing keypairs must not be overwritten")
}
