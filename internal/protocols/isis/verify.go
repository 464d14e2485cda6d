package isis

import (
	"sort"
	"strconv"
	"strings"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/session"
)

// spfDelayTimers are the IETF SPF delay parameters that must be configured
// together or not at all.
var spfDelayTimers = []string{"holddown", "init_delay", "long_delay", "short_delay", "time_to_learn"}

// Verify is a pure validation pass over the retrieved dict. It performs no
// I/O beyond the injected host query and raises on the first failing rule.
// An empty or deleted dict signals full removal and is trivially valid.
func (h *Handler) Verify(d configtree.Dict) error {
	if len(d) == 0 || d.Has(configtree.KeyDeleted) {
		return nil
	}

	if !d.Has("domain") {
		return session.Errorf("Routing domain name/tag must be set!")
	}
	if !d.Has("net") {
		return session.Errorf("Network entity is mandatory!")
	}
	if !d.Has("interface") {
		return session.Errorf("Interface used for routing updates is mandatory!")
	}

	// Interfaces are bound to a VRF before any routing protocol is
	// configured on them, so a VRF instance may only reference interfaces
	// the kernel already reports as members of that VRF.
	if vrf := d.String(configtree.KeyVRF); vrf != "" {
		for _, intf := range d.Strings("interface") {
			live, err := h.host.GetInterfaceConfig(intf)
			if err != nil || live.Master != vrf {
				return session.Errorf("Interface %s is not a member of VRF %s!", intf, vrf)
			}
		}
	}

	if d.Has("area_password") {
		enc := d.Strings("encryption")
		if containsAll(enc, "md5", "plaintext_password") {
			return session.Errorf("Can not use both md5 and plaintext-password for ISIS area-password!")
		}
	}

	if spf := d.Sub("spf_delay_ietf"); d.Has("spf_delay_ietf") {
		var missing []string
		for _, timer := range spfDelayTimers {
			if spf == nil || !spf.Has(timer) {
				missing = append(missing, strings.ReplaceAll(timer, "_", "-"))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return session.Errorf("All types of delay must be specified: %s", strings.Join(missing, ", "))
		}
	}

	if err := h.verifyRedistribute(d); err != nil {
		return err
	}

	for _, block := range []string{"global_block", "local_block"} {
		if err := verifySegmentRoutingBlock(d, block); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) verifyRedistribute(d configtree.Dict) error {
	redist := d.Sub("redistribute")
	if redist == nil {
		return nil
	}

	tag := d.String("domain")
	procLevel := strings.ReplaceAll(d.String("level"), "-", "_")

	for _, afi := range []string{"ipv4"} {
		protos := redist.Sub(afi)
		if protos == nil {
			continue
		}
		names := make([]string, 0, len(protos))
		for proto := range protos {
			names = append(names, proto)
		}
		sort.Strings(names)

		for _, proto := range names {
			levels := protoLevels(protos[proto])
			if len(levels) == 0 {
				return session.Errorf(
					"Redistribute level-1 or level-2 should be specified in \"protocols isis %s redistribute %s %s\"!",
					tag, afi, proto)
			}
			for _, level := range levels {
				if procLevel != "" && procLevel != "level_1_2" && procLevel != level {
					return session.Errorf(
						"\"protocols isis %s redistribute %s %s %s\" can not be used with \"protocols isis %s level %s\"",
						tag, afi, proto, level, tag, procLevel)
				}
			}
		}
	}
	return nil
}

// protoLevels extracts the level_1/level_2 keys from one redistribute
// protocol entry, tolerating both bare levels and levels carrying options.
func protoLevels(v any) []string {
	var levels []string
	switch t := v.(type) {
	case string:
		if isLevelKey(t) {
			levels = append(levels, t)
		}
	case []string:
		for _, s := range t {
			if isLevelKey(s) {
				levels = append(levels, s)
			}
		}
	case configtree.Dict:
		for k := range t {
			if isLevelKey(k) {
				levels = append(levels, k)
			}
		}
	}
	sort.Strings(levels)
	return levels
}

func isLevelKey(s string) bool {
	return s == "level_1" || s == "level_2"
}

func verifySegmentRoutingBlock(d configtree.Dict, block string) error {
	if d.Search("segment_routing."+block) == nil {
		return nil
	}
	name := strings.ReplaceAll(block, "_", " ")

	low := d.SearchString("segment_routing." + block + ".low_label_value")
	high := d.SearchString("segment_routing." + block + ".high_label_value")

	if (low != "" && high == "") || (high != "" && low == "") {
		return session.Errorf("Segment routing %s requires both low and high value!", name)
	}
	if low == "" && high == "" {
		return nil
	}

	lowVal, err := strconv.Atoi(low)
	if err != nil {
		return session.Errorf("Segment routing %s low value must be a number!", name)
	}
	highVal, err := strconv.Atoi(high)
	if err != nil {
		return session.Errorf("Segment routing %s high value must be a number!", name)
	}
	if lowVal > highVal {
		return session.Errorf("Segment routing %s low value must be lower than high value", name)
	}
	return nil
}

func containsAll(haystack []string, needles ...string) bool {
	set := make(map[string]bool, len(haystack))
	for _, s := range haystack {
		set[s] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}
