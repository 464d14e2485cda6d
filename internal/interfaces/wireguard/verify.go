package wireguard

import (
	"net"
	"strconv"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/session"
)

// Verify validates one interface's dict. Beyond pure checks it consults the
// keystore, the only collaborator the rules need: a declared private key
// must actually exist before the commit may proceed. An empty or deleted
// dict signals removal and is trivially valid.
func (h *Handler) Verify(d configtree.Dict, name string) error {
	if len(d) == 0 || d.Has(configtree.KeyDeleted) {
		return nil
	}

	if !d.Has("address") {
		return session.Errorf("IP address is mandatory on wireguard interface %s!", name)
	}
	for _, addr := range d.Strings("address") {
		if _, _, err := net.ParseCIDR(addr); err != nil {
			return session.Errorf("Invalid address %q on wireguard interface %s!", addr, name)
		}
	}

	keyName := d.String("private_key")
	if keyName == "" {
		keyName = DefaultKeyName
	}
	if !h.keys.Exists(keyName) {
		return session.Errorf("WireGuard private key %q does not exist, generate it first!", keyName)
	}

	if port := d.String("port"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return session.Errorf("Invalid port %q on wireguard interface %s!", port, name)
		}
	}
	if mark := d.String("fwmark"); mark != "" {
		if _, err := strconv.Atoi(mark); err != nil {
			return session.Errorf("Invalid fwmark %q on wireguard interface %s!", mark, name)
		}
	}

	ownPub := ""
	if pub, err := h.keys.PublicKey(keyName); err == nil {
		ownPub = pub.String()
	}

	peers := d.Sub("peer")
	for _, peerName := range d.Strings("peer") {
		p := peers.Sub(peerName)
		if p == nil {
			p = configtree.Dict{}
		}

		pubkey := p.String("pubkey")
		if pubkey == "" {
			return session.Errorf("Public key is mandatory for wireguard peer %s!", peerName)
		}
		if _, err := wgtypes.ParseKey(pubkey); err != nil {
			return session.Errorf("Invalid public key for wireguard peer %s!", peerName)
		}
		if ownPub != "" && pubkey == ownPub {
			return session.Errorf("Peer %s public key must not match our own public key!", peerName)
		}

		if !p.Has("allowed_ips") {
			return session.Errorf("Allowed-ips is mandatory for wireguard peer %s!", peerName)
		}
		for _, cidr := range p.Strings("allowed_ips") {
			if _, _, err := net.ParseCIDR(cidr); err != nil {
				return session.Errorf("Invalid allowed-ips %q for wireguard peer %s!", cidr, peerName)
			}
		}

		if psk := p.String("preshared_key"); psk != "" {
			if _, err := wgtypes.ParseKey(psk); err != nil {
				return session.Errorf("Invalid preshared key for wireguard peer %s!", peerName)
			}
		}

		if endpoint := p.String("endpoint"); endpoint != "" {
			hostPart, portPart, err := net.SplitHostPort(endpoint)
			if err != nil || hostPart == "" {
				return session.Errorf("Invalid endpoint %q for wireguard peer %s!", endpoint, peerName)
			}
			if ep, err := strconv.Atoi(portPart); err != nil || ep < 1 || ep > 65535 {
				return session.Errorf("Invalid endpoint port %q for wireguard peer %s!", portPart, peerName)
			}
		}

		if ka := p.String("persistent_keepalive"); ka != "" {
			secs, err := strconv.Atoi(ka)
			if err != nil || secs < 1 || secs > 65535 {
				return session.Errorf("Invalid persistent-keepalive %q for wireguard peer %s!", ka, peerName)
			}
		}
	}

	return nil
}
