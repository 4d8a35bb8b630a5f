package notify

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

// fakeSMTP speaks just enough of the protocol for smtp.SendMail and
// records the DATA payload. It serves exactly one session.
type fakeSMTP struct {
	ln   net.Listener
	done chan string
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeSMTP{ln: ln, done: make(chan string, 1)}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeSMTP) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		s.done <- ""
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { conn.Write([]byte(line + "\r\n")) }

	reply("220 fake ESMTP")
	var data strings.Builder
	inData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if inData {
			if line == "." {
				inData = false
				reply("250 ok")
				continue
			}
			data.WriteString(line + "\n")
			continue
		}
		switch {
		case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
			conn.Write([]byte("250-fake\r\n250 AUTH PLAIN\r\n"))
		case strings.HasPrefix(line, "AUTH"):
			reply("235 ok")
		case strings.HasPrefix(line, "MAIL"), strings.HasPrefix(line, "RCPT"):
			reply("250 ok")
		case line == "DATA":
			inData = true
			reply("354 go ahead")
		case line == "QUIT":
			// Record before replying: once the client sees 221 the
			// test may check the channel.
			s.done <- data.String()
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
	s.done <- data.String()
}

func TestSendDeliversBeforeReturning(t *testing.T) {
	srv := startFakeSMTP(t)
	host, port, err := net.SplitHostPort(srv.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	m := &Mailer{
		Host:      host,
		Port:      port,
		Sender:    "pipeline@example.com",
		Password:  "secret",
		Recipient: "ops@example.com",
	}
	if err := m.Send("Run Report", "All stages finished."); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Send returned, so the full SMTP exchange must already be done.
	select {
	case msg := <-srv.done:
		if !strings.Contains(msg, "Subject: Run Report") {
			t.Errorf("delivered message missing subject:\n%s", msg)
		}
		if !strings.Contains(msg, "All stages finished.") {
			t.Errorf("delivered message missing body:\n%s", msg)
		}
	default:
		t.Fatal("Send returned before the message was delivered")
	}
}

func TestSendUnconfiguredIsNoOp(t *testing.T) {
	m := &Mailer{}
	if m.Enabled() {
		t.Error("empty mailer reports enabled")
	}
	if err := m.Send("subject", "body"); err != nil {
		t.Errorf("unconfigured Send: %v", err)
	}
}
