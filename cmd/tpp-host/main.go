// Package main is the entrypoint for tpp-host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/morezero/tpp-host/internal/config"
	"github.com/morezero/tpp-host/internal/server"
	"github.com/morezero/tpp-host/pkg/commsutil"
	"github.com/morezero/tpp-host/pkg/dispatcher"
	"github.com/morezero/tpp-host/pkg/manifest"
	"github.com/morezero/tpp-host/pkg/semver"
	"github.com/morezero/tpp-host/pkg/transport"
)

const usage = `Usage: tpp-host [command]
       tpp-host serve                                Start the channel host (NATS, HTTP).
       tpp-host call <channel[@range]> <method> [args-json]
                                                     Invoke a method on a running channel and print the response.
       tpp-host manifest [file]                      Print the resolved channel manifest as YAML.

Commands:
  serve      (default) Bind the tpp channel and serve until SIGINT/SIGTERM.
  call       Send one request, e.g. "tpp-host call tpp@1 getCurrentDirectory".
  manifest   Load the manifest (file, CHANNEL_MANIFEST_FILE, config/channel.yaml, channel.yaml, built-in).

Environment: COMMS_URL, CHANNEL_NAME, CHANNEL_SUBJECT, CHANNEL_MANIFEST_FILE,
CURRENT_DIRECTORY_MODE (workdir, executable, legacy), HTTP_ADDR, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "call":
		if err := runCall(args[1:], os.Stdout); err != nil {
			log.Fatalf("tpp-host call: %v", err)
		}
		return
	case "manifest":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		if err := runManifest(file, os.Stdout); err != nil {
			log.Fatalf("tpp-host manifest: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("tpp-host: %v", err)
	}
}

// callRequest is a parsed "call" command line.
type callRequest struct {
	ref    *semver.ChannelRef
	method string
	args   dispatcher.Value
}

func parseCallArgs(args []string) (*callRequest, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("expected <channel[@range]> <method> [args-json]")
	}
	ref, err := semver.ParseChannelRef(args[0])
	if err != nil {
		return nil, err
	}
	if args[1] == "" {
		return nil, fmt.Errorf("method is required")
	}
	req := &callRequest{ref: ref, method: args[1]}
	if len(args) == 3 {
		if err := json.Unmarshal([]byte(args[2]), &req.args); err != nil {
			return nil, fmt.Errorf("parse args: %w", err)
		}
	}
	return req, nil
}

// callSubject picks the subject for ref: CHANNEL_SUBJECT when set, otherwise the
// major pinned by the range, otherwise the major of the local manifest.
func callSubject(cfg *config.Config, ref *semver.ChannelRef) (string, error) {
	if cfg.ChannelSubject != "" {
		return cfg.ChannelSubject, nil
	}
	major := semver.MajorOfRange(ref.Range)
	if major < 0 {
		m, err := manifest.LoadManifest(cfg.ManifestFile)
		if err != nil {
			return "", err
		}
		if major, err = semver.MajorOf(m.Version); err != nil {
			return "", err
		}
	}
	return commsutil.BuildChannelSubject(cfg.SubjectPrefix, ref.Name, major), nil
}

func runCall(args []string, out io.Writer) error {
	req, err := parseCallArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	subject, err := callSubject(cfg, req.ref)
	if err != nil {
		return err
	}

	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName+"-cli")
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer nc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	outcome, err := transport.Call(ctx, nc, subject, req.method, req.args, &transport.InvocationContext{Version: req.ref.Range})
	if err != nil {
		return err
	}
	return printOutcome(out, outcome)
}

// printOutcome writes the outcome in wire form and returns an error for anything but success.
func printOutcome(out io.Writer, outcome dispatcher.Outcome) error {
	data, err := json.MarshalIndent(transport.OutcomeResponse("", outcome), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))

	switch outcome.Kind {
	case dispatcher.KindSuccess:
		return nil
	case dispatcher.KindUnsupported:
		return fmt.Errorf("method not implemented")
	default:
		return fmt.Errorf("%s: %s", outcome.Failure.Code, outcome.Failure.Message)
	}
}

func runManifest(file string, out io.Writer) error {
	if file == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		file = cfg.ManifestFile
	}
	m, err := manifest.LoadManifest(file)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}
