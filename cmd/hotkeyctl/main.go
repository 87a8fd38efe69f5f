// hotkeyctl talks to a running hotkeyd daemon over its control pipe.
//
//	hotkeyctl activate   show the settings window
//	hotkeyctl status     print a runtime snapshot as JSON
//	hotkeyctl reload     re-read the configuration file
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"hotkeyd/internal/ipc"
)

func main() {
	setConsoleUTF8()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		usage(stderr)
		return 2
	}
	op, ok := resolveOp(args[0])
	if !ok {
		fmt.Fprintf(stderr, "hotkeyctl: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	resp, err := ipc.Send(ipc.DefaultPipeName(), ipc.Request{Op: op})
	if err != nil {
		if ipc.IsConnectionError(err) {
			fmt.Fprintln(stderr, "hotkeyctl: hotkeyd is not running")
			return 3
		}
		fmt.Fprintf(stderr, "hotkeyctl: %v\n", err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintf(stderr, "hotkeyctl: daemon rejected %s: %s\n", op, resp.Error)
		return 1
	}
	if len(resp.Data) > 0 {
		pretty, err := json.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "hotkeyctl: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(pretty))
	} else {
		fmt.Fprintln(stdout, "ok")
	}
	return 0
}

// resolveOp maps a CLI verb to a control op. The set is closed on purpose:
// the daemon rejects unknown ops anyway, but failing locally gives a usage
// message instead of a pipe round trip.
func resolveOp(verb string) (string, bool) {
	switch verb {
	case "activate":
		return ipc.OpActivate, true
	case "status":
		return ipc.OpStatus, true
	case "reload":
		return ipc.OpReload, true
	default:
		return "", false
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: hotkeyctl <activate|status|reload>")
}
