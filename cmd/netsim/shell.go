package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routesim/netsim/pkg/bgproute"
	"github.com/routesim/netsim/pkg/config"
	"github.com/routesim/netsim/pkg/forwarding"
	"github.com/routesim/netsim/pkg/format"
	"github.com/routesim/netsim/pkg/id"
	"github.com/routesim/netsim/pkg/kernel"
	"github.com/routesim/netsim/pkg/ospf"
	"github.com/routesim/netsim/pkg/router"
)

// Shell provides an interactive REPL over one in-memory network, so an
// operator can build a topology and watch convergence incrementally
// without round-tripping through a file on every step.
type Shell struct {
	net      *kernel.Network
	cfg      *config.Config
	universe string
	path     string // "" until the first load/save
	dirty    bool
	reader   *bufio.Reader
	commands map[string]func(args []string)
}

func NewShell() *Shell {
	s := &Shell{
		net:      kernel.NewNetwork(),
		cfg:      config.New(),
		universe: app.universe,
		reader:   bufio.NewReader(os.Stdin),
	}
	s.commands = map[string]func(args []string){
		"load":      s.cmdLoad,
		"save":      s.cmdSave,
		"router":    s.cmdRouter,
		"link":      s.cmdLink,
		"session":   s.cmdSession,
		"advertise": s.cmdAdvertise,
		"retract":   s.cmdRetract,
		"simulate":  s.cmdSimulate,
		"step":      s.cmdStep,
		"show":      s.cmdShow,
		"help":      func([]string) { s.cmdHelp() },
		"?":         func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the interactive shell loop.
func (s *Shell) Run() error {
	fmt.Println("netsim interactive shell. Type 'help' for commands, 'quit' to exit.")
	for {
		fmt.Print(s.prompt())
		line, err := s.reader.ReadString('\n')
		if err != nil { // EOF
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmdName := fields[0]
		switch cmdName {
		case "quit", "exit", "q":
			return nil
		default:
			if fn, ok := s.commands[cmdName]; ok {
				fn(fields[1:])
			} else {
				fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmdName)
			}
		}
	}
}

func (s *Shell) prompt() string {
	mark := ""
	if s.dirty {
		mark = "*"
	}
	name := s.path
	if name == "" {
		name = "(unsaved)"
	}
	return fmt.Sprintf("netsim %s%s> ", name, mark)
}

func (s *Shell) resolve(name string) (id.RouterID, error) {
	r, err := s.net.RouterByName(name)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (s *Shell) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: load <file>")
		return
	}
	n, cfg, universe, err := loadNetwork(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	s.net, s.cfg, s.path, s.dirty = n, cfg, args[0], false
	if universe != "" {
		s.universe = universe
	}
	fmt.Printf("loaded %s: %d routers, %d links\n", args[0], len(n.Routers()), len(n.Links()))
}

func (s *Shell) cmdSave(args []string) {
	path := s.path
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		fmt.Println("usage: save <file> (no file previously loaded)")
		return
	}
	if err := saveNetwork(path, s.net, s.cfg, s.universe); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.path, s.dirty = path, false
	fmt.Println("saved", path)
}

func (s *Shell) cmdRouter(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: router add <name> [asn] [external] | router list")
		return
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			fmt.Println("usage: router add <name> [asn] [external]")
			return
		}
		kind := router.Internal
		asn := uint64(id.InternalASN)
		for _, extra := range args[2:] {
			if extra == "external" {
				kind = router.External
			} else if v, err := strconv.ParseUint(extra, 10, 32); err == nil {
				asn = v
			}
		}
		rid := s.net.AddRouter(kind, id.ASN(asn), args[1])
		s.dirty = true
		fmt.Printf("added %s (id=%s)\n", args[1], rid)
	case "list":
		for _, rid := range s.net.Routers() {
			r, _ := s.net.Router(rid)
			fmt.Printf("  %-12s %-5s asn=%d\n", s.net.Name(rid), r.Kind, r.ASN)
		}
	default:
		fmt.Println("usage: router add <name> [asn] [external] | router list")
	}
}

func (s *Shell) cmdLink(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: link <a> <b> [weight] [area]")
		return
	}
	a, err := s.resolve(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	b, err := s.resolve(args[1])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	weight := 1.0
	area := ospf.Backbone
	if len(args) > 2 {
		if w, err := strconv.ParseFloat(args[2], 64); err == nil {
			weight = w
		}
	}
	if len(args) > 3 {
		if a32, err := strconv.ParseUint(args[3], 10, 32); err == nil {
			area = ospf.Area(a32)
		}
	}
	if err := s.net.AddLink(a, b, weight, area); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.dirty = true
	fmt.Printf("linked %s-%s weight=%g area=%s\n", args[0], args[1], weight, area)
}

func (s *Shell) cmdSession(args []string) {
	if len(args) != 3 {
		fmt.Println("usage: session <a> <b> <ibgp-peer|ibgp-client|ebgp>")
		return
	}
	a, err := s.resolve(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	b, err := s.resolve(args[1])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	typ, err := bgproute.ParseSessionType(args[2])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := s.net.SetBGPSession(a, b, typ); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.dirty = true
}

func (s *Shell) cmdAdvertise(args []string) {
	if len(args) < 3 {
		fmt.Println("usage: advertise <router> <prefix> <origin-asn> [as-path-asn...]")
		return
	}
	rid, err := s.resolve(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	save := app.universe
	app.universe = s.universe
	p, err := parsePrefixArg(args[1])
	app.universe = save
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	origin, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	asPath := []id.ASN{id.ASN(origin)}
	for _, a := range args[3:] {
		v, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		asPath = append([]id.ASN{id.ASN(v)}, asPath...)
	}
	route := bgproute.Route{Prefix: p, NextHop: rid, ASPath: asPath}
	if err := s.net.AdvertiseExternalRoute(rid, p, route); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.dirty = true
}

func (s *Shell) cmdRetract(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: retract <router> <prefix>")
		return
	}
	rid, err := s.resolve(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	save := app.universe
	app.universe = s.universe
	p, err := parsePrefixArg(args[1])
	app.universe = save
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := s.net.RetractExternalRoute(rid, p); err != nil {
		fmt.Println("error:", err)
		return
	}
	s.dirty = true
}

func (s *Shell) cmdSimulate(args []string) {
	s.net.StopAfter = app.stopAfter
	if s.net.StopAfter == 0 {
		s.net.StopAfter = 100000
	}
	before := s.net.EventsProcessed()
	if err := s.net.Simulate(); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("processed %d events\n", s.net.EventsProcessed()-before)
}

func (s *Shell) cmdStep(args []string) {
	e, ok, err := s.net.SimulateStep()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if !ok {
		fmt.Println("queue empty")
		return
	}
	fmt.Printf("delivered %s: %s -> %s\n", e.Kind, s.net.Name(e.Src), s.net.Name(e.Dst))
}

func (s *Shell) cmdShow(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: show forwarding <prefix> [router] | show paths <src> <prefix>")
		return
	}
	save := app.universe
	app.universe = s.universe
	defer func() { app.universe = save }()

	table, err := forwarding.Build(s.net)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	switch args[0] {
	case "forwarding":
		if len(args) < 2 {
			fmt.Println("usage: show forwarding <prefix> [router]")
			return
		}
		p, err := parsePrefixArg(args[1])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		routers := s.net.Routers()
		if len(args) == 3 {
			rid, err := s.resolve(args[2])
			if err != nil {
				fmt.Println("error:", err)
				return
			}
			routers = []id.RouterID{rid}
		}
		for _, rid := range routers {
			entry, ok := table.Entry(rid, p)
			if !ok {
				continue
			}
			fmt.Printf("  %-12s %s\n", s.net.Name(rid), format.ForwardingEntryView{Entry: entry}.Format(s.net))
		}
	case "paths":
		if len(args) != 3 {
			fmt.Println("usage: show paths <src> <prefix>")
			return
		}
		src, err := s.resolve(args[1])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		p, err := parsePrefixArg(args[2])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		paths, err := table.GetPaths(src, p)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		for _, path := range paths {
			fmt.Println(format.ForwardingPathView{Path: path}.Format(s.net))
		}
	default:
		fmt.Println("usage: show forwarding <prefix> [router] | show paths <src> <prefix>")
	}
}

func (s *Shell) cmdHelp() {
	fmt.Println(`commands:
  load <file>                                   load a persisted network
  save [file]                                   save (to the loaded path if omitted)
  router add <name> [asn] [external]            add a router
  router list                                   list routers
  link <a> <b> [weight] [area]                  add a topology link
  session <a> <b> <ibgp-peer|ibgp-client|ebgp>  configure a BGP session
  advertise <router> <prefix> <asn> [path...]   originate an external route
  retract <router> <prefix>                     withdraw an external route
  simulate                                      run the event queue to quiescence
  step                                          deliver one event
  show forwarding <prefix> [router]             show forwarding entries
  show paths <src> <prefix>                     enumerate forwarding paths
  quit                                          exit`)
}

var shellCmd = &cobra.Command{
	Use:    "shell",
	Short:  "Interactive REPL over a live network",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := NewShell()
		if app.file != "" {
			s.cmdLoad([]string{app.file})
		}
		return s.Run()
	},
}
