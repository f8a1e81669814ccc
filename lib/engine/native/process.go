package native

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-i2p/i2ptunnelctl/lib/config"
	"github.com/go-i2p/i2ptunnelctl/lib/engine"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

const tailLines = 20

// process is one supervised java child.
type process struct {
	name   string
	cmd    *exec.Cmd
	marker string

	ready     chan struct{}
	readyOnce sync.Once
	scanned   chan struct{}
	done      chan struct{}
	waitErr   error

	mu   sync.Mutex
	tail []string
}

// startProcess launches `java -cp <base>/lib/* <class> args...`. Output is
// logged line by line; when marker is non-empty the first line containing
// it closes ready.
func startProcess(cfg config.EngineConfig, class engine.Class, args []string, marker string) (*process, error) {
	argv := append([]string{"-cp", cfg.ClassPath(), string(class)}, args...)
	cmd := exec.Command(cfg.JavaBin, argv...)
	cmd.Dir = cfg.BasePath

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	p := &process{
		name:    string(class),
		cmd:     cmd,
		marker:  marker,
		ready:   make(chan struct{}),
		scanned: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return nil, oops.Wrapf(err, "failed to start %s", class)
	}

	log.WithFields(logger.Fields{
		"at":    "native.startProcess",
		"class": class,
		"pid":   cmd.Process.Pid,
	}).Debug("started child process")

	go p.scan(pr)
	go func() {
		p.waitErr = cmd.Wait()
		_ = pw.Close()
		<-p.scanned
		close(p.done)
	}()
	return p, nil
}

func (p *process) scan(r io.Reader) {
	defer close(p.scanned)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		p.remember(line)
		log.WithFields(logger.Fields{
			"at":      "native.process",
			"process": p.name,
		}).Debug(line)
		if p.marker != "" && strings.Contains(line, p.marker) {
			p.readyOnce.Do(func() { close(p.ready) })
		}
	}
	// Keep the child from blocking on a full pipe after an overlong line.
	_, _ = io.Copy(io.Discard, r)
}

func (p *process) remember(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tail = append(p.tail, line)
	if len(p.tail) > tailLines {
		p.tail = p.tail[len(p.tail)-tailLines:]
	}
}

func (p *process) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.tail, "\n")
}

func (p *process) alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// exitErr describes how the process ended. Only valid after done is closed.
func (p *process) exitErr() error {
	if p.waitErr != nil {
		return oops.Wrapf(p.waitErr, "%s exited; output:\n%s", p.name, p.output())
	}
	return oops.Errorf("%s exited; output:\n%s", p.name, p.output())
}

// waitReady blocks until the marker is printed, the process exits or
// timeout elapses. Without a marker a running process counts as ready.
func (p *process) waitReady(timeout time.Duration) error {
	if p.marker == "" {
		if p.alive() {
			return nil
		}
		return p.exitErr()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.ready:
		return nil
	case <-p.done:
		select {
		case <-p.ready:
			return nil
		default:
		}
		return p.exitErr()
	case <-timer.C:
		return oops.Errorf("%s did not print %q within %s", p.name, p.marker, timeout)
	}
}

// terminate asks the process to stop and kills it after grace.
func (p *process) terminate(grace time.Duration) error {
	if !p.alive() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Not supported everywhere; fall through to Kill.
		grace = 0
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	log.WithFields(logger.Fields{
		"at":      "native.process.terminate",
		"process": p.name,
		"grace":   grace,
	}).Warn("child did not exit in time, killing")
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return oops.Wrapf(err, "failed to kill %s", p.name)
	}
	<-p.done
	return nil
}
