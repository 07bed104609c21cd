package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxelcraft.ai/redstone/internal/circuit/busroute"
	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/filters"
	"voxelcraft.ai/redstone/internal/persistence/regionfile"
	"voxelcraft.ai/redstone/internal/protocol"
	"voxelcraft.ai/redstone/schemas"
)

type Server struct {
	runner  *filters.Runner
	welcome protocol.WelcomeMsg
	log     *log.Logger

	runSchema *jsonschema.Schema
	upgrader  websocket.Upgrader
}

// NewServer serves filter runs. welcome is sent after every HELLO with a
// fresh session id.
func NewServer(runner *filters.Runner, welcome protocol.WelcomeMsg, logger *log.Logger) (*Server, error) {
	raw, err := schemas.FS.ReadFile("run.schema.json")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("run.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	sch, err := c.Compile("run.schema.json")
	if err != nil {
		return nil, err
	}
	welcome.Type = protocol.TypeWelcome
	welcome.ProtocolVersion = protocol.Version
	welcome.Filters = []string{string(filters.Analyze), string(filters.Route)}
	welcome.MaxRegionVolume = runner.MaxVolume()
	return &Server{
		runner:    runner,
		welcome:   welcome,
		log:       logger,
		runSchema: sch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		session := s.handshake(conn)
		if session == "" {
			return
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if err := writeJSON(conn, s.handle(session, msg)); err != nil {
				break
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return ""
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return ""
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return ""
	}

	w := s.welcome
	w.SessionID = uuid.NewString()
	if err := writeJSON(conn, w); err != nil {
		return ""
	}
	if s.log != nil {
		s.log.Printf("ws: session %s opened (client=%q)", w.SessionID, hello.ClientName)
	}
	return w.SessionID
}

func errorMsg(id, code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Code:            code,
		Message:         message,
	}
}

// handle turns one client message into the reply to send.
func (s *Server) handle(session string, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, "malformed json")
	}
	if base.Type != protocol.TypeRun {
		return errorMsg("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
	}
	var doc any
	_ = json.Unmarshal(msg, &doc)
	if err := s.runSchema.Validate(doc); err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, err.Error())
	}
	var run protocol.RunMsg
	if err := json.Unmarshal(msg, &run); err != nil {
		return errorMsg("", protocol.ErrProtoBadRequest, err.Error())
	}
	if run.ProtocolVersion != protocol.Version {
		return errorMsg(run.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
	}

	name, err := filters.ParseName(run.Filter)
	if err != nil {
		return errorMsg(run.ID, protocol.ErrUnknownFilter, err.Error())
	}
	region, err := regionfile.Decode(run.Region)
	if err != nil {
		return errorMsg(run.ID, protocol.ErrBadRequest, err.Error())
	}
	if err := s.runner.CheckRegion(region.Box()); err != nil {
		return errorMsg(run.ID, protocol.ErrRegionTooLarge, err.Error())
	}
	st, box, err := regionfile.Load(region)
	if err != nil {
		return errorMsg(run.ID, protocol.ErrBadRequest, err.Error())
	}

	res, err := s.runner.Run(name, st, box)
	if err != nil {
		code := protocol.ErrInternal
		switch {
		case errors.Is(err, busroute.ErrDuplicateTerminal):
			code = protocol.ErrDuplicateTerminal
		case errors.Is(err, filters.ErrRegionTooLarge):
			code = protocol.ErrRegionTooLarge
		}
		if s.log != nil {
			s.log.Printf("ws: session %s run %s: %v", session, run.ID, err)
		}
		return errorMsg(run.ID, code, err.Error())
	}

	out := resultMsg(run.ID, res)
	if run.ReturnRegion {
		b, err := json.Marshal(regionfile.Capture(st, box.Expand(1), region.Header.Name))
		if err != nil {
			return errorMsg(run.ID, protocol.ErrInternal, err.Error())
		}
		out.Region = b
	}
	if s.log != nil {
		s.log.Printf("ws: session %s run %s: %s", session, run.ID, filters.Summary(res))
	}
	return out
}

func resultMsg(id string, res *filters.Result) protocol.ResultMsg {
	out := protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Filter:          string(res.Filter),
		Changes:         make([]protocol.ChangeRef, 0, len(res.Changes)),
	}
	for _, c := range res.Changes {
		out.Changes = append(out.Changes, protocol.ChangeRef{Pos: c.Pos.ToArray(), From: c.From.Packed(), To: c.To.Packed()})
	}
	if c := res.Connectivity; c != nil {
		n := c.Networks.Count
		out.Networks = &n
		out.Painted = c.Painted
		out.Skipped = c.Skipped
	}
	if b := res.Buses; b != nil {
		out.Unpaired = b.Unpaired
		for _, c := range b.Colors {
			cr := protocol.ColorResult{
				Color:     c.Color,
				Name:      voxel.ColorName(c.Color),
				Start:     c.Start.ToArray(),
				End:       c.End.ToArray(),
				Guides:    c.Guides,
				Reached:   c.Reached,
				Placed:    c.Placed,
				Repeaters: c.Repeaters,
				Complete:  c.Complete,
			}
			if !c.Complete {
				dead := c.DeadEnd.ToArray()
				cr.DeadEnd = &dead
			}
			out.Colors = append(out.Colors, cr)
		}
	}
	return out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
