package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/vovakirdan/typeroom-server/internal/proto"
)

func getJSON(t *testing.T, client *http.Client, url string, dst any) {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestListRoomsEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)
	ctx := testContext(t)

	var rooms []proto.RoomSummary
	getJSON(t, ts.Client(), ts.URL+"/api/rooms", &rooms)
	if rooms == nil || len(rooms) != 0 {
		t.Fatalf("expected empty array, got %+v", rooms)
	}

	conn, _ := dial(t, ctx, ts, "")
	created := call(t, ctx, conn, proto.InboundCreateRoom, proto.CreateRoomData{Name: "porch"})
	call(t, ctx, conn, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: created.RoomID})

	getJSON(t, ts.Client(), ts.URL+"/api/rooms", &rooms)
	if len(rooms) != 1 {
		t.Fatalf("expected one room, got %+v", rooms)
	}
	if rooms[0].ID != created.RoomID || rooms[0].Name != "porch" || rooms[0].UserCount != 1 || rooms[0].CreatedAt == 0 {
		t.Fatalf("unexpected room summary: %+v", rooms[0])
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)
	ctx := testContext(t)

	dial(t, ctx, ts, "")
	dial(t, ctx, ts, "")

	var st StatsResponse
	getJSON(t, ts.Client(), ts.URL+"/api/stats", &st)
	if st.Users != 2 || st.Connections != 2 || st.Rooms != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
