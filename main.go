package main

import (
	"flag"
	"fmt"
	"os"

	"grimm.is/confplane/cmd"
	"grimm.is/confplane/internal/settings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "isis":
		isisFlags := flag.NewFlagSet("isis", flag.ExitOnError)
		settingsFile := isisFlags.String("settings", settings.DefaultPath, "Settings file")
		isisFlags.Parse(os.Args[2:])

		vrf := ""
		if len(isisFlags.Args()) > 0 {
			vrf = isisFlags.Arg(0)
		}
		if err := cmd.RunISIS(*settingsFile, vrf); err != nil {
			fmt.Fprintf(os.Stderr, "isis failed: %v\n", err)
			os.Exit(1)
		}

	case "wireguard", "wg":
		wgFlags := flag.NewFlagSet("wireguard", flag.ExitOnError)
		settingsFile := wgFlags.String("settings", settings.DefaultPath, "Settings file")
		wgFlags.Parse(os.Args[2:])

		ifname := ""
		if len(wgFlags.Args()) > 0 {
			ifname = wgFlags.Arg(0)
		}
		if err := cmd.RunWireguard(*settingsFile, ifname); err != nil {
			fmt.Fprintf(os.Stderr, "wireguard failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		settingsFile := checkFlags.String("settings", settings.DefaultPath, "Settings file")
		checkFlags.Parse(os.Args[2:])

		treeFile := ""
		if len(checkFlags.Args()) > 0 {
			treeFile = checkFlags.Arg(0)
		}
		if err := cmd.RunCheck(*settingsFile, treeFile); err != nil {
			fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		diffFlags := flag.NewFlagSet("diff", flag.ExitOnError)
		settingsFile := diffFlags.String("settings", settings.DefaultPath, "Settings file")
		diffFlags.Parse(os.Args[2:])

		vrf := ""
		if len(diffFlags.Args()) > 0 {
			vrf = diffFlags.Arg(0)
		}
		if err := cmd.RunDiff(*settingsFile, vrf); err != nil {
			fmt.Fprintf(os.Stderr, "diff failed: %v\n", err)
			os.Exit(1)
		}

	case "keygen":
		keygenFlags := flag.NewFlagSet("keygen", flag.ExitOnError)
		settingsFile := keygenFlags.String("settings", settings.DefaultPath, "Settings file")
		keygenFlags.Parse(os.Args[2:])

		name := ""
		if len(keygenFlags.Args()) > 0 {
			name = keygenFlags.Arg(0)
		}
		if err := cmd.RunKeygen(*settingsFile, name); err != nil {
			fmt.Fprintf(os.Stderr, "keygen failed: %v\n", err)
			os.Exit(1)
		}

	case "init":
		initFlags := flag.NewFlagSet("init", flag.ExitOnError)
		settingsFile := initFlags.String("settings", settings.DefaultPath, "Settings file")
		initFlags.Parse(os.Args[2:])

		if err := settings.WriteDefault(*settingsFile); err != nil {
			fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default settings to %s\n", *settingsFile)

	case "version", "--version", "-v":
		cmd.RunVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`confplane - network configuration commit pipeline

Usage:
  confplane <command> [options]

Commands:
  isis [vrf]         Apply the ISIS subtree to isisd (default or named VRF)
  wireguard [name]   Apply the WireGuard subtree (one or all interfaces)
  check <tree.yaml>  Validate a tree file without applying anything
  diff [vrf]         Show pending isisd changes without applying them
  keygen [name]      Generate a named WireGuard keypair
  init               Write a default settings file
  version            Show version information

Options:
  --settings <file>  Settings file (default ` + settings.DefaultPath + `)
`)
}
