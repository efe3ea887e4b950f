package redis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Client is a minimal RESP client covering the few commands the rate limiter
// needs (PING, INCR, EXPIRE). No Redis client library appears anywhere in
// our stack, so this speaks the protocol directly over a small connection
// pool.
type Client struct {
	addr     string
	password string
	db       int
	pool     chan net.Conn
}

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

func New(cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}

	c := &Client{
		addr:     cfg.Addr,
		password: cfg.Password,
		db:       cfg.DB,
		pool:     make(chan net.Conn, cfg.PoolSize),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) Close() error {
	for {
		select {
		case conn := <-c.pool:
			_ = conn.Close()
		default:
			return nil
		}
	}
}

func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.do(ctx, "PING")
	if err != nil {
		return err
	}
	if reply != "PONG" {
		return fmt.Errorf("redis: unexpected PING reply %q", reply)
	}
	return nil
}

// Incr increments key and returns the new value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	reply, err := c.do(ctx, "INCR", key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(reply, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: unexpected INCR reply %q", reply)
	}
	return n, nil
}

// ExpireSeconds sets a TTL on key. A missing key is not an error; the
// limiter only uses TTLs for cleanup.
func (c *Client) ExpireSeconds(ctx context.Context, key string, ttlSeconds int64) error {
	if ttlSeconds <= 0 {
		ttlSeconds = 60
	}
	_, err := c.do(ctx, "EXPIRE", key, strconv.FormatInt(ttlSeconds, 10))
	return err
}

func (c *Client) do(ctx context.Context, args ...string) (string, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	}

	rd := bufio.NewReader(conn)
	reply, err := roundTrip(conn, rd, args...)
	if err != nil {
		_ = conn.Close()
		return "", err
	}

	select {
	case c.pool <- conn:
	default:
		_ = conn.Close()
	}
	return reply, nil
}

func (c *Client) acquire(ctx context.Context) (net.Conn, error) {
	select {
	case conn := <-c.pool:
		return conn, nil
	default:
	}

	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	}

	rd := bufio.NewReader(conn)
	if c.password != "" {
		if _, err := roundTrip(conn, rd, "AUTH", c.password); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if c.db != 0 {
		if _, err := roundTrip(conn, rd, "SELECT", strconv.Itoa(c.db)); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// roundTrip writes one command as a RESP array and reads a single reply.
// Simple strings and integers come back as their text form; errors become Go
// errors; bulk strings return their payload.
func roundTrip(conn net.Conn, rd *bufio.Reader, args ...string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("redis: empty command")
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, fmt.Sprintf("*%d\r\n", len(args))...)
	for _, arg := range args {
		buf = append(buf, fmt.Sprintf("$%d\r\n%s\r\n", len(arg), arg)...)
	}
	if _, err := conn.Write(buf); err != nil {
		return "", err
	}

	return readReply(rd)
}

func readReply(rd *bufio.Reader) (string, error) {
	line, err := rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 3 || line[len(line)-2] != '\r' {
		return "", errors.New("redis: malformed reply")
	}
	kind, body := line[0], line[1:len(line)-2]

	switch kind {
	case '+', ':':
		return body, nil
	case '-':
		return "", errors.New("redis: " + body)
	case '$':
		n, err := strconv.Atoi(body)
		if err != nil {
			return "", errors.New("redis: malformed bulk length")
		}
		if n < 0 {
			return "", nil
		}
		payload := make([]byte, n+2)
		if _, err := readFull(rd, payload); err != nil {
			return "", err
		}
		return string(payload[:n]), nil
	default:
		return "", fmt.Errorf("redis: unsupported reply type %q", kind)
	}
}

func readFull(rd *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := rd.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
