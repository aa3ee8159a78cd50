// Package serverquery реализует клиент протокола A2S_INFO движка Source:
// один UDP-запрос, опциональный challenge-обмен и разбор бинарного ответа.
package serverquery

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

// infoRequest — фиксированный запрос A2S_INFO:
// 0xFF 0xFF 0xFF 0xFF + "TSource Engine Query" + нулевой байт.
var infoRequest = []byte("\xff\xff\xff\xffTSource Engine Query\x00")

const (
	headerChallenge = 'A' // сервер требует повторить запрос с токеном
	headerInfo      = 'I' // полноценный ответ A2S_INFO

	maxResponseSize = 4096
)

// ErrMalformedResponse возвращается для короткого или некорректного
// ответа. Вызывающий трактует его как offline, не как системный сбой.
var ErrMalformedResponse = errors.New("malformed server query response")

// Info — разобранный ответ игрового сервера.
type Info struct {
	Protocol   byte
	Name       string
	Map        string
	Game       string
	AppID      uint16
	Players    int
	MaxPlayers int
}

type Client struct {
	timeout time.Duration
}

// NewClient создаёт клиент с таймаутом на каждое сетевое ожидание.
func NewClient(timeout time.Duration) *Client {
	return &Client{timeout: timeout}
}

// Query выполняет один сетевой обмен с сервером (два, если сервер
// ответил challenge-пакетом). Повторов сверх этого нет.
func (c *Client) Query(ctx context.Context, address string) (*Info, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	data, err := c.roundTrip(conn, infoRequest)
	if err != nil {
		return nil, err
	}

	if len(data) >= 5 && data[4] == headerChallenge {
		if len(data) < 9 {
			return nil, ErrMalformedResponse
		}
		challenged := make([]byte, 0, len(infoRequest)+4)
		challenged = append(challenged, infoRequest...)
		challenged = append(challenged, data[5:9]...)

		data, err = c.roundTrip(conn, challenged)
		if err != nil {
			return nil, err
		}
	}

	return parseInfo(data)
}

func (c *Client) roundTrip(conn net.Conn, request []byte) ([]byte, error) {
	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}

	buf := make([]byte, maxResponseSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read query reply: %w", err)
	}
	return buf[:n], nil
}

// parseInfo разбирает ответ A2S_INFO. Поля идут в фиксированном
// порядке после 5-байтового заголовка: байт версии протокола, четыре
// null-terminated строки (имя, карта, каталог — отбрасывается, игра),
// little-endian uint16 app id и два байта счётчиков игроков.
func parseInfo(data []byte) (*Info, error) {
	if len(data) < 6 || data[4] != headerInfo {
		return nil, ErrMalformedResponse
	}

	offset := 5
	info := &Info{Protocol: data[offset]}
	offset++

	var err error
	if info.Name, offset, err = readCString(data, offset); err != nil {
		return nil, err
	}
	if info.Map, offset, err = readCString(data, offset); err != nil {
		return nil, err
	}
	// Каталог игры читается и отбрасывается.
	if _, offset, err = readCString(data, offset); err != nil {
		return nil, err
	}
	if info.Game, offset, err = readCString(data, offset); err != nil {
		return nil, err
	}

	if offset+2 > len(data) {
		return nil, ErrMalformedResponse
	}
	info.AppID = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if offset+2 > len(data) {
		return nil, ErrMalformedResponse
	}
	info.Players = int(data[offset])
	info.MaxPlayers = int(data[offset+1])

	return info, nil
}

func readCString(data []byte, offset int) (string, int, error) {
	if offset >= len(data) {
		return "", 0, ErrMalformedResponse
	}
	end := bytes.IndexByte(data[offset:], 0x00)
	if end < 0 {
		return "", 0, ErrMalformedResponse
	}
	return string(data[offset : offset+end]), offset + end + 1, nil
}

// IsTimeout сообщает, что обмен завершился по таймауту сокета.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
