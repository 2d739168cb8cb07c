package handlers

import (
	"net/http"
	"strconv"
	"sync"
	"vinylcat/ingest"
	"vinylcat/models"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConnectedScanners tracks open scan feeds per user (a user may have the
// scanner open on more than one device).
var ConnectedScanners = cmap.New[int]()

type scanFeedRequest struct {
	ReleaseID string  `json:"release_id"`
	Barcode   string  `json:"barcode"`
	Shelf     *uint64 `json:"shelf"`
}

type scanFeedEvent struct {
	Attempt string       `json:"attempt"`
	State   ingest.State `json:"state"`
	Error   string       `json:"error,omitempty"`
	Release *ReleaseInfo `json:"release,omitempty"`
}

// ScanFeed is the live variant of scan/add for scanner UIs: the client
// sends one add request per message and receives a stream of pipeline
// state transitions, ending in the persisted release or a typed failure.
func ScanFeed(c *gin.Context, user *models.User) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	key := strconv.FormatUint(user.ID, 10)
	ConnectedScanners.Upsert(key, 1, func(exist bool, cur, n int) int { return cur + n })
	defer ConnectedScanners.Upsert(key, -1, func(exist bool, cur, n int) int { return cur + n })

	var writeMutex sync.Mutex
	send := func(event scanFeedEvent) bool {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		return conn.WriteJSON(event) == nil
	}

	for {
		request := scanFeedRequest{}
		if err := conn.ReadJSON(&request); err != nil {
			return
		}
		release, err := pipeline.IngestExternal(c.Request.Context(), user, request.ReleaseID, request.Barcode, request.Shelf,
			func(attempt string, state ingest.State) {
				send(scanFeedEvent{Attempt: attempt, State: state})
			})
		if err != nil {
			if !send(scanFeedEvent{State: ingest.StateAborted, Error: err.Error()}) {
				return
			}
			continue
		}
		info := releaseInfoFrom(release)
		if !send(scanFeedEvent{State: ingest.StateCompleted, Release: &info}) {
			return
		}
	}
}
