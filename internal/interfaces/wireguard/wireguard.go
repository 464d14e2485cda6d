// Package wireguard translates the interfaces/wireguard configuration
// subtree into WireGuard kernel device state. The commit pipeline mirrors
// the routing-protocol handlers: retrieve, verify, generate a device plan,
// apply it, one interface at a time.
package wireguard

import (
	"net"
	"sort"
	"strconv"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/logging"
	"grimm.is/confplane/internal/session"
)

var basePath = []string{"interfaces", "wireguard"}

// Plan is the generated device state for one interface: everything the
// apply stage needs, derived purely from the validated dict.
type Plan struct {
	Name      string
	Addresses []string
	MTU       int
	Config    wgtypes.Config
}

// Handler runs the WireGuard commit pipeline for every declared interface.
type Handler struct {
	device Device
	keys   *Keystore
	logger *logging.Logger
}

// New creates a handler bound to a device backend and keystore.
func New(device Device, keys *Keystore) *Handler {
	return &Handler{
		device: device,
		keys:   keys,
		logger: logging.WithComponent("wireguard"),
	}
}

// Name implements session.Handler.
func (h *Handler) Name() string { return "interfaces-wireguard" }

// OwnedPaths implements session.Handler.
func (h *Handler) OwnedPaths() [][]string {
	return [][]string{basePath}
}

// Run executes the pipeline for each interface the commit touches:
// currently declared interfaces whose subtree changed, plus interfaces the
// commit removed entirely.
func (h *Handler) Run(c *session.Commit) error {
	names := map[string]bool{}
	if node := c.Candidate.Get(basePath...); node != nil {
		for _, name := range node.ChildNames() {
			if c.Changed(append(basePath, name)...) {
				names[name] = true
			}
		}
	}
	for _, name := range c.Removed(basePath...) {
		names[name] = true
	}

	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		if err := h.RunInterface(c, name); err != nil {
			return err
		}
	}
	return nil
}

// RunInterface executes the pipeline for a single named interface.
func (h *Handler) RunInterface(c *session.Commit, name string) error {
	d := h.GetConfig(c, name)
	if err := h.Verify(d, name); err != nil {
		return err
	}
	plan, err := h.Generate(d, name)
	if err != nil {
		return err
	}
	return h.Apply(d, name, plan)
}

// GetConfig reads one interface's subtree from the candidate snapshot and
// injects the derived peer_removed and deleted keys.
func (h *Handler) GetConfig(c *session.Commit, name string) configtree.Dict {
	path := append(basePath, name)
	d := c.Candidate.GetDict(path...)

	if removed := c.Removed(append(path, "peer")...); len(removed) > 0 {
		d["peer_removed"] = removed
	}
	if !c.Exists(path...) {
		d[configtree.KeyDeleted] = ""
	}
	return d
}

// Generate builds the device plan for a validated dict. Deletion yields a
// nil plan. Verify is assumed to have run.
func (h *Handler) Generate(d configtree.Dict, name string) (*Plan, error) {
	if len(d) == 0 || d.Has(configtree.KeyDeleted) {
		return nil, nil
	}

	keyName := d.String("private_key")
	if keyName == "" {
		keyName = DefaultKeyName
	}
	privKey, err := h.keys.PrivateKey(keyName)
	if err != nil {
		return nil, session.Errorf("WireGuard private key %q could not be loaded: %v", keyName, err)
	}

	conf := wgtypes.Config{
		PrivateKey:   &privKey,
		ReplacePeers: true,
	}
	if port := d.String("port"); port != "" {
		p, _ := strconv.Atoi(port)
		conf.ListenPort = &p
	}
	if mark := d.String("fwmark"); mark != "" {
		m, _ := strconv.Atoi(mark)
		conf.FirewallMark = &m
	}

	peers := d.Sub("peer")
	peerNames := d.Strings("peer")
	for _, peerName := range peerNames {
		p := peers.Sub(peerName)
		if p == nil {
			continue
		}

		pubKey, err := wgtypes.ParseKey(p.String("pubkey"))
		if err != nil {
			return nil, session.Errorf("peer %s public key is invalid: %v", peerName, err)
		}
		peerConf := wgtypes.PeerConfig{
			PublicKey:         pubKey,
			ReplaceAllowedIPs: true,
		}

		if psk := p.String("preshared_key"); psk != "" {
			key, err := wgtypes.ParseKey(psk)
			if err != nil {
				return nil, session.Errorf("peer %s preshared key is invalid: %v", peerName, err)
			}
			peerConf.PresharedKey = &key
		}

		if endpoint := p.String("endpoint"); endpoint != "" {
			addr, err := net.ResolveUDPAddr("udp", endpoint)
			if err != nil {
				return nil, session.Errorf("peer %s endpoint %q is invalid: %v", peerName, endpoint, err)
			}
			peerConf.Endpoint = addr
		}

		if ka := p.String("persistent_keepalive"); ka != "" {
			secs, _ := strconv.Atoi(ka)
			interval := time.Duration(secs) * time.Second
			peerConf.PersistentKeepaliveInterval = &interval
		}

		for _, cidr := range p.Strings("allowed_ips") {
			_, ipnet, err := net.ParseCIDR(cidr)
			if err != nil {
				return nil, session.Errorf("peer %s allowed-ips %q is invalid: %v", peerName, cidr, err)
			}
			peerConf.AllowedIPs = append(peerConf.AllowedIPs, *ipnet)
		}

		conf.Peers = append(conf.Peers, peerConf)
	}

	plan := &Plan{
		Name:      name,
		Addresses: d.Strings("address"),
		Config:    conf,
	}
	if mtu := d.String("mtu"); mtu != "" {
		plan.MTU, _ = strconv.Atoi(mtu)
	}
	return plan, nil
}

// Apply pushes the plan to the device backend. A nil plan (deletion)
// removes the interface. Peers removed by the commit disappear through
// ReplacePeers semantics, no per-peer teardown needed.
func (h *Handler) Apply(d configtree.Dict, name string, plan *Plan) error {
	if plan == nil {
		if err := h.device.Remove(name); err != nil {
			return session.Errorf("failed to remove interface %s: %v", name, err)
		}
		return nil
	}
	if err := h.device.Ensure(plan); err != nil {
		return session.Errorf("failed to configure interface %s: %v", name, err)
	}
	return nil
}
