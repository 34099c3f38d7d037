package rewriter

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/clitheme/clitheme/internal/locale"
	"github.com/clitheme/clitheme/internal/store"
)

// Run spawns name/args under a PTY, applies st's substrules to
// everything the child writes, and forwards the invoker's stdin and
// terminal signals to it, per spec §4.10's main loop and process
// model. It returns the exit code to propagate: the child's own exit
// code, or 128+N if the child died on signal N.
//
// The PTY merges the child's stdout and stderr into a single stream,
// so rules scoped stdout-only or stderr-only are evaluated here as if
// every byte were stdout; this is a known limit of the PTY transport,
// not of the rule engine (internal/cli's "filter" command, which reads
// already-separated stdin, does not share it).
func Run(name string, args []string, st *store.Store) (int, error) {
	cmd := exec.Command(name, args...)
	master, err := startUnderPTY(cmd)
	if err != nil {
		return 1, err
	}
	defer master.Close()

	command := strings.Join(append([]string{name}, args...), " ")
	locales := locale.Resolve(os.Getenv)

	stdinFd := int(os.Stdin.Fd())
	stdoutFd := int(os.Stdout.Fd())
	stdinIsTerm := term.IsTerminal(stdinFd)
	stdoutIsTerm := term.IsTerminal(stdoutFd)

	var oldState *term.State
	if stdinIsTerm && stdoutIsTerm {
		oldState, err = term.MakeRaw(stdinFd)
		if err != nil {
			return 1, fmt.Errorf("enter raw mode: %w", err)
		}
		defer term.Restore(stdinFd, oldState)

		if ws, err := getWinsize(stdoutFd); err == nil {
			resizePTY(master, ws.Row, ws.Col)
		}
	}

	sigCh := make(chan os.Signal, 8)
	signal.Notify(sigCh, syscall.SIGWINCH, syscall.SIGINT, syscall.SIGTSTP, syscall.SIGCONT)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go forwardSignals(sigCh, done, cmd, master, stdinFd, stdoutFd, stdinIsTerm, stdoutIsTerm, &oldState)

	runLoop(master, st, command, locales)

	close(done)
	waitErr := cmd.Wait()
	return exitCodeFromWait(waitErr), nil
}

func forwardSignals(sigCh chan os.Signal, done chan struct{}, cmd *exec.Cmd, master *os.File, stdinFd, stdoutFd int, stdinIsTerm, stdoutIsTerm bool, oldState **term.State) {
	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGWINCH:
				if ws, err := getWinsize(stdoutFd); err == nil {
					resizePTY(master, ws.Row, ws.Col)
				}
				if cmd.Process != nil {
					cmd.Process.Signal(syscall.SIGWINCH)
				}
			case syscall.SIGINT:
				master.Write([]byte{0x03})
			case syscall.SIGTSTP:
				if *oldState != nil {
					term.Restore(stdinFd, *oldState)
				}
				if cmd.Process != nil {
					cmd.Process.Signal(syscall.SIGSTOP)
				}
				syscall.Kill(os.Getpid(), syscall.SIGSTOP)
			case syscall.SIGCONT:
				if stdinIsTerm && stdoutIsTerm {
					if s, err := term.MakeRaw(stdinFd); err == nil {
						*oldState = s
					}
				}
				if cmd.Process != nil {
					cmd.Process.Signal(syscall.SIGCONT)
				}
			}
		case <-done:
			return
		}
	}
}

// runLoop is the poll-driven core: it reads from the PTY master and,
// if stdin is a terminal, from stdin, applying rules to the master's
// output on each completed line or after a 5 ms idle flush timeout.
func runLoop(master *os.File, st *store.Store, command string, locales []string) {
	masterFd := int(master.Fd())
	stdinFd := int(os.Stdin.Fd())

	pollFds := []unix.PollFd{
		{Fd: int32(masterFd), Events: unix.POLLIN},
		{Fd: int32(stdinFd), Events: unix.POLLIN},
	}
	if !term.IsTerminal(stdinFd) {
		// poll ignores negative descriptors.
		pollFds[1].Fd = -1
	}

	var buf []byte
	readBuf := make([]byte, 8192)

	flush := func(chunk []byte) {
		if len(chunk) == 0 {
			return
		}
		rules, _ := st.FetchSubstrules(command, locales)
		out, _ := MatchContent(rules, string(chunk), false)
		os.Stdout.WriteString(out)
	}

	for {
		timeout := -1
		if len(buf) > 0 {
			timeout = 5
		}

		n, err := unix.Poll(pollFds, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			break
		}
		if n == 0 {
			flush(buf)
			buf = nil
			continue
		}

		if pollFds[1].Revents&unix.POLLIN != 0 {
			m, _ := os.Stdin.Read(readBuf)
			if m > 0 {
				master.Write(readBuf[:m])
			}
		}

		if pollFds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			m, rerr := master.Read(readBuf)
			if m > 0 {
				buf = append(buf, readBuf[:m]...)
				if idx := lastLineBoundary(buf); idx >= 0 {
					flush(buf[:idx+1])
					buf = append([]byte(nil), buf[idx+1:]...)
				}
			}
			if rerr != nil {
				flush(buf)
				buf = nil
				return
			}
		}
	}
}

func lastLineBoundary(buf []byte) int {
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] == '\n' || buf[i] == '\r' {
			return i
		}
	}
	return -1
}

func exitCodeFromWait(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}
	return 1
}
