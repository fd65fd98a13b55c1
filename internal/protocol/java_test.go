package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJavaServer accepts one connection, consumes the handshake and status
// request, and answers with the given status JSON document.
func fakeJavaServer(t *testing.T, statusJSON string) (host string, port int) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// Drain handshake and status request frames.
		r := bufio.NewReader(conn)
		for i := 0; i < 2; i++ {
			frameLen, err := binary.ReadUvarint(r)
			if err != nil {
				return
			}
			if _, err := io.CopyN(io.Discard, r, int64(frameLen)); err != nil {
				return
			}
		}

		b := make([]byte, binary.MaxVarintLen64)
		body := bytes.NewBuffer(b[:binary.PutUvarint(b, uint64(len(statusJSON)))])
		body.WriteString(statusJSON)
		_ = writeJavaPacket(conn, javaStatusResponsePacketID, body.Bytes())
	}()

	addr := listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestPingJava(t *testing.T) {
	statusJSON := `{
		"version": {"name": "Paper 1.21.1", "protocol": 767},
		"players": {
			"max": 4000,
			"online": 2847,
			"sample": [
				{"name": "Steve", "id": "853c80ef-3c37-49fd-aa49-938b674adae6"},
				{"name": "buy ranks at shop!", "id": "not-a-uuid"}
			]
		},
		"description": {"text": "A Minecraft ", "extra": [{"text": "Server"}]},
		"favicon": "data:image/png;base64,iVBORw0KGgoAAA=="
	}`

	host, port := fakeJavaServer(t, statusJSON)

	status, err := PingJava(context.Background(), host, port, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, "Paper 1.21.1", status.VersionName)
	assert.EqualValues(t, 767, status.ProtocolVersion)
	assert.EqualValues(t, 2847, status.OnlinePlayers)
	assert.EqualValues(t, 4000, status.MaxPlayers)
	assert.Equal(t, "A Minecraft Server", status.Description)
	assert.Equal(t, "iVBORw0KGgoAAA==", status.Favicon, "data-URI prefix must be stripped")

	require.Len(t, status.Sample, 1, "bogus UUID entries must be dropped")
	assert.Equal(t, "Steve", status.Sample[0].Name)

	assert.Positive(t, status.Latency)
}

func TestPingJavaConnectionRefused(t *testing.T) {
	// Grab a free port and close it again so nothing listens there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	_, err = PingJava(context.Background(), "127.0.0.1", port, time.Second)
	assert.ErrorIs(t, err, ErrConnectionRefused)
}

func TestWriteJavaHandshake(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJavaHandshake(&buf, "play.example.com", 25565))

	r := bufio.NewReader(&buf)

	frameLen, err := binary.ReadUvarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len()+r.Buffered(), frameLen, "frame length must cover exactly the rest of the packet")

	packetID, err := binary.ReadUvarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, javaHandshakePacketID, packetID)

	protoVersion, err := binary.ReadVarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, javaProtocolVersionUndefined, protoVersion)

	hostLen, err := binary.ReadUvarint(r)
	require.NoError(t, err)
	hostBytes := make([]byte, hostLen)
	_, err = io.ReadFull(r, hostBytes)
	require.NoError(t, err)
	assert.Equal(t, "play.example.com", string(hostBytes))

	var port uint16
	require.NoError(t, binary.Read(r, binary.BigEndian, &port))
	assert.EqualValues(t, 25565, port)

	nextState, err := binary.ReadUvarint(r)
	require.NoError(t, err)
	assert.EqualValues(t, javaNextStateStatus, nextState)
}

func TestReadJavaStatusResponseMalformed(t *testing.T) {
	encode := func(packetID uint64, payload []byte) []byte {
		b := make([]byte, binary.MaxVarintLen64)
		body := bytes.NewBuffer(b[:binary.PutUvarint(b, packetID)])
		body.Write(payload)

		frame := bytes.NewBuffer(b[:binary.PutUvarint(b, uint64(body.Len()))])
		_, _ = body.WriteTo(frame)
		return frame.Bytes()
	}

	strPayload := func(s string) []byte {
		b := make([]byte, binary.MaxVarintLen64)
		out := append([]byte{}, b[:binary.PutUvarint(b, uint64(len(s)))]...)
		return append(out, s...)
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"wrongPacketID", encode(0x7f, strPayload("{}"))},
		{"zeroLength", []byte{0}},
		{"truncatedString", encode(javaStatusResponsePacketID, strPayload("{}")[:1])},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readJavaStatusResponse(bufio.NewReader(bytes.NewReader(tc.data)))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseJavaStatusBadJSON(t *testing.T) {
	_, err := parseJavaStatus([]byte("not json at all"))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestDescriptionText(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plainString", `"hello world"`, "hello world"},
		{"component", `{"text": "hello"}`, "hello"},
		{"nestedExtra", `{"text": "a", "extra": [{"text": "b", "extra": ["c"]}]}`, "abc"},
		{"stringInExtra", `{"text": "x", "extra": ["y"]}`, "xy"},
		{"empty", ``, ""},
		{"garbage", `42`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, descriptionText(json.RawMessage(tc.raw)))
		})
	}
}
