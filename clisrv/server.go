// Package clisrv implements the northbound CLI wire protocol shared by
// the gNB and UE CLI server tasks: one whitespace-tokenised command per
// line, answered with either a YAML document or a one-line error string.
package clisrv

import (
	"bufio"
	"context"
	"net"
	"strings"

	loggergoModel "github.com/Alonza0314/logger-go/v2/model"
	"github.com/go5gran/ransim/message"
)

// Pusher is the subset of task.Task the CLI server needs: somewhere to
// forward a parsed command and wait for its answer.
type Pusher interface {
	Push(msg any)
}

// Parser turns a tokenised command line into a command value, or a
// human-readable error consumed verbatim by the caller.
type Parser func(tokens []string) (cmd any, helpText string, err error)

// Server owns the listening socket; it never touches node state itself,
// only translates wire requests into message.CliRequest values sent to
// target.
type Server struct {
	network string
	address string
	parse   Parser
	target  Pusher
	log     loggergoModel.LoggerInterface

	listener net.Listener
}

func NewServer(network, address string, parse Parser, target Pusher, log loggergoModel.LoggerInterface) *Server {
	return &Server{
		network: network,
		address: address,
		parse:   parse,
		target:  target,
		log:     log,
	}
}

func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen(s.network, s.address)
	if err != nil {
		return err
	}
	s.listener = listener
	s.log.Infof("CLI server listening on %s %s", s.network, s.address)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Warnf("CLI accept error: %v", err)
				return err
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handleLine(conn, line)
	}
}

func (s *Server) handleLine(conn net.Conn, line string) {
	tokens := strings.Fields(line)

	cmd, helpText, err := s.parse(tokens)
	if err != nil {
		writeLine(conn, err.Error())
		return
	}
	if helpText != "" {
		writeLine(conn, helpText)
		return
	}

	reply := make(chan message.CliResponse, 1)
	s.target.Push(message.CliRequest{Cmd: cmd, Reply: reply})

	resp := <-reply
	if resp.Err != nil {
		writeLine(conn, resp.Err.Error())
		return
	}
	writeLine(conn, resp.Text)
}

func writeLine(conn net.Conn, text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	conn.Write([]byte(text))
}
