package dalmatian

/*------------------------------------------------------------------
 *
 * Purpose:	Line-oriented TCP control server.
 *
 * Description:	The driver usually sits headless next to the bus;
 *		this gives wall switches, home automation glue and
 *		curious humans with netcat a way in.  One command per
 *		line, one reply per line:
 *
 *		    ping
 *		    off <addr>|all
 *		    on <addr>|all
 *		    dapc <addr>|all <level>
 *		    poweron <addr> <level>
 *		    query <addr> actual|max|min|poweron
 *		    commission
 *		    trace
 *		    log
 *
 *		Replies start with "ok" or "err".  Commands run one
 *		at a time; the bus is half duplex anyway.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Server exposes one driver over TCP.
type Server struct {
	d      *Dali
	cfg    Config
	logger *log.Logger

	mu sync.Mutex // one bus command at a time
}

// NewServer returns a control server for the given driver.
func NewServer(d *Dali, cfg Config, logger *log.Logger) *Server {
	return &Server{d: d, cfg: cfg, logger: logger}
}

// ListenAndServe accepts control connections until the listener
// fails.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	s.logger.Info("control server listening", "addr", l.Addr().String())
	announceControlServer(s.logger, tcpPort(l.Addr()))
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func tcpPort(a net.Addr) int {
	if t, ok := a.(*net.TCPAddr); ok {
		return t.Port
	}
	return 0
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close() //nolint:errcheck
	s.logger.Debug("control connection", "peer", conn.RemoteAddr().String())
	var sc = bufio.NewScanner(conn)
	for sc.Scan() {
		var line = strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return
		}
		fmt.Fprintln(conn, s.execute(line)) //nolint:errcheck
	}
}

// execute runs one command line against the bus and returns the
// reply line.
func (s *Server) execute(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return "err empty command"
	}
	var cmd = strings.ToLower(fields[0])
	var args = fields[1:]
	switch cmd {
	case "ping":
		return "ok pong"
	case "off":
		return s.lampCmd(args, func(a Addr) bool { return s.d.SendLampOff(a, true) })
	case "on":
		return s.lampCmd(args, func(a Addr) bool { return s.d.SendOnStepUp(a, true) })
	case "dapc":
		if len(args) != 2 {
			return "err usage: dapc <addr>|all <level>"
		}
		a, err := parseAddr(args[0])
		if err != nil {
			return "err " + err.Error()
		}
		level, err := parseLevel(args[1])
		if err != nil {
			return "err " + err.Error()
		}
		if !s.d.SendDapc(a, true, level) {
			return "err " + s.d.Err().Error()
		}
		return "ok"
	case "poweron":
		if len(args) != 2 {
			return "err usage: poweron <addr> <level>"
		}
		a, err := parseAddr(args[0])
		if err != nil {
			return "err " + err.Error()
		}
		level, err := parseLevel(args[1])
		if err != nil {
			return "err " + err.Error()
		}
		if !s.d.SendSetPowerOnLevel(a, true, level) {
			return "err " + s.d.Err().Error()
		}
		return "ok"
	case "query":
		if len(args) != 2 {
			return "err usage: query <addr> actual|max|min|poweron"
		}
		a, err := parseAddr(args[0])
		if err != nil {
			return "err " + err.Error()
		}
		var q Msg
		switch strings.ToLower(args[1]) {
		case "actual":
			q = MsgQueryActualLevel
		case "max":
			q = MsgQueryMaxLevel
		case "min":
			q = MsgQueryMinLevel
		case "poweron":
			q = MsgQueryPowerOnLevel
		default:
			return "err unknown query " + args[1]
		}
		switch v := s.d.queryLevel(PriUser, a, q); v {
		case -1:
			return "err " + s.d.Err().Error()
		case -2:
			return "err no reply"
		default:
			return fmt.Sprintf("ok %d", v)
		}
	case "commission":
		addrs, err := s.d.Commission()
		if err != nil {
			return "err " + err.Error()
		}
		var shorts = make([]string, len(addrs))
		for i, a := range addrs {
			shorts[i] = strconv.Itoa(int(a >> 1))
		}
		return "ok " + strings.Join(shorts, " ")
	case "trace":
		if s.cfg.TraceDir == "" {
			return "err no trace_dir configured"
		}
		path, err := s.d.DumpTraceCSV(s.cfg.TraceDir)
		if err != nil {
			return "err " + err.Error()
		}
		return "ok " + path
	case "log":
		return "ok " + strconv.Quote(s.d.LogBuf())
	}
	return "err unknown command " + cmd
}

func (s *Server) lampCmd(args []string, f func(Addr) bool) string {
	if len(args) != 1 {
		return "err usage: <cmd> <addr>|all"
	}
	var a, err = parseAddr(args[0])
	if err != nil {
		return "err " + err.Error()
	}
	if !f(a) {
		return "err " + s.d.Err().Error()
	}
	return "ok"
}

// parseAddr accepts a short address 0..63, "g<n>" for group n or
// "all" for broadcast, and returns the address byte in DAPC form.
func parseAddr(s string) (Addr, error) {
	if strings.EqualFold(s, "all") {
		return Broadcast &^ 1, nil
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "g"); ok {
		var g, err = strconv.Atoi(rest)
		if err != nil || g < 0 || g > 15 {
			return 0, fmt.Errorf("bad group %q", s)
		}
		return GroupAddr(g), nil
	}
	var n, err = strconv.Atoi(s)
	if err != nil || n < 0 || n > 63 {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return ShortAddr(n), nil
}

func parseLevel(s string) (byte, error) {
	var n, err = strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("bad level %q", s)
	}
	return byte(n), nil
}
