package server

// Msg is the websocket frame exchanged with the client. Content carries a
// plain string or a JSON document depending on Type.
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// request types
const (
	TypeEnv   = "env"
	TypeStart = "start"
	TypeStop  = "stop"
)

// response types
const (
	TypeEnvSet   = "envSet"
	TypeStarted  = "started"
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeStopped  = "stopped"
	TypeError    = "error"
)

// Progress is the content of a progress message.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}
