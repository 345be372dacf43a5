package agora

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora/memstore"
	"github.com/rs/zerolog"
)

// freeAddr returns a local address nothing listens on.
func freeAddr(c *qt.C) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)
	addr := l.Addr().String()
	c.Assert(l.Close(), qt.IsNil)
	return addr
}

func TestServerStartStop(t *testing.T) {
	c := qt.New(t)

	c.Run("serves until stopped", func(c *qt.C) {
		addr := freeAddr(c)
		s := NewServer(&ServerConfig{Addr: addr, ServerSecret: "test", MaxConnections: 2}, zerolog.Nop(), memstore.New())
		c.Assert(s.Prepare(), qt.IsNil)

		errc := make(chan error, 1)
		go func() { errc <- s.Start() }()

		var resp *http.Response
		var err error
		for i := 0; i < 50; i++ {
			resp, err = http.Get("http://" + addr + "/healthz")
			if err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		c.Assert(err, qt.IsNil)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.Assert(err, qt.IsNil)
		c.Assert(string(body), qt.Equals, "ok\n")

		s.Stop()
		c.Assert(<-errc, qt.IsNil)
	})

	c.Run("address already in use", func(c *qt.C) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		c.Assert(err, qt.IsNil)
		defer l.Close()

		s := NewServer(&ServerConfig{Addr: l.Addr().String(), ServerSecret: "test"}, zerolog.Nop(), memstore.New())
		c.Assert(s.Start(), qt.ErrorMatches, ".*address already in use")
	})
}

func TestNewServerConfig(t *testing.T) {
	c := qt.New(t)

	c.Run("current user defaults", func(c *qt.C) {
		cfg := &ServerConfig{ServerSecret: "test"}
		s := NewServer(cfg, zerolog.Nop(), memstore.New())
		c.Assert(s.config.CurrentUser, qt.Equals, DefaultAuthor)
		c.Assert(cfg.CurrentUser, qt.Equals, Author{})
	})

	c.Run("caller changes are not seen", func(c *qt.C) {
		cfg := &ServerConfig{ServerSecret: "test", CurrentUser: Author{ID: 12, Name: "tintin"}}
		s := NewServer(cfg, zerolog.Nop(), memstore.New())
		cfg.CurrentUser = Author{ID: 13, Name: "milou"}
		c.Assert(s.config.CurrentUser, qt.Equals, Author{ID: 12, Name: "tintin"})
	})
}
