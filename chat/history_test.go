package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func seedHistoryDB(t *testing.T) *fakeDB {
	t.Helper()
	db := newFakeDB()
	db.addMember("c1", "alice")
	db.addMember("c2", "alice")
	for _, content := range []string{"m1", "m2", "m3"} {
		if _, err := db.InsertMessage(context.Background(), Message{
			ConversationID: "c1",
			SenderID:       "alice",
			Content:        content,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestServer_listMessages(t *testing.T) {
	tests := []struct {
		name       string
		cache      *fakeCache
		token      string
		url        string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "Unauthorized",
			token:      "",
			url:        "/conversations/c1/messages",
			wantStatus: 401,
			wantBody: `{
				"error": "Invalid or expired token"
			}`,
		},
		{
			name:       "NotMember",
			token:      "bob-token",
			url:        "/conversations/c1/messages",
			wantStatus: 403,
			wantBody: `{
				"error": "You are not a member of this conversation"
			}`,
		},
		{
			name:       "InvalidLimit",
			token:      "alice-token",
			url:        "/conversations/c1/messages?limit=abc",
			wantStatus: 400,
			wantBody: `{
				"error": "Invalid limit"
			}`,
		},
		{
			name:       "Empty",
			token:      "alice-token",
			url:        "/conversations/c2/messages",
			wantStatus: 200,
			wantBody: `{
				"messages": []
			}`,
		},
		{
			name:       "FirstPage",
			token:      "alice-token",
			url:        "/conversations/c1/messages?limit=2",
			wantStatus: 200,
			wantBody: `{
				"messages": [
					{
						"id": "msg-0003",
						"conversation_id": "c1",
						"sender_id": "alice",
						"content": "m3",
						"created_at": "2024-01-01T00:00:03Z",
						"reactions": []
					},
					{
						"id": "msg-0002",
						"conversation_id": "c1",
						"sender_id": "alice",
						"content": "m2",
						"created_at": "2024-01-01T00:00:02Z",
						"reactions": []
					}
				],
				"next_cursor": "msg-0002"
			}`,
		},
		{
			name:       "CursorPage",
			token:      "alice-token",
			url:        "/conversations/c1/messages?limit=2&cursor=msg-0002",
			wantStatus: 200,
			wantBody: `{
				"messages": [
					{
						"id": "msg-0001",
						"conversation_id": "c1",
						"sender_id": "alice",
						"content": "m1",
						"created_at": "2024-01-01T00:00:01Z",
						"reactions": []
					}
				]
			}`,
		},
		{
			name: "CacheHit",
			cache: &fakeCache{
				listMsgs: []Message{
					{
						ID:             "msg-0003",
						ConversationID: "c1",
						SenderID:       "alice",
						Content:        "cached",
						CreatedAt:      time.Date(2024, 1, 1, 0, 0, 3, 0, time.UTC),
						Reactions:      []Reaction{},
					},
				},
			},
			token:      "alice-token",
			url:        "/conversations/c1/messages?limit=1",
			wantStatus: 200,
			wantBody: `{
				"messages": [
					{
						"id": "msg-0003",
						"conversation_id": "c1",
						"sender_id": "alice",
						"content": "cached",
						"created_at": "2024-01-01T00:00:03Z",
						"reactions": []
					}
				],
				"next_cursor": "msg-0003"
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := tt.cache
			if cache == nil {
				cache = &fakeCache{}
			}
			ts := newTestServer(t, seedHistoryDB(t), cache, NewHub())

			req, _ := http.NewRequest("GET", ts.URL+tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			checkStatus(t, resp.StatusCode, tt.wantStatus)
			checkBody(t, resp, tt.wantBody)
		})
	}
}

func TestServer_listMessagesDBError(t *testing.T) {
	db := seedHistoryDB(t)
	db.listErr = errors.New("something went wrong")
	ts := newTestServer(t, db, &fakeCache{}, NewHub())

	req, _ := http.NewRequest("GET", ts.URL+"/conversations/c1/messages", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	checkStatus(t, resp.StatusCode, 500)
	checkBody(t, resp, `{
		"error": "Could not list messages"
	}`)
}

// A cursor page never contains the cursor message itself or anything newer,
// and pages are sorted descending by id.
func TestServer_listMessagesPaginationInvariants(t *testing.T) {
	db := seedHistoryDB(t)
	ts := newTestServer(t, db, &fakeCache{}, NewHub())

	req, _ := http.NewRequest("GET", ts.URL+"/conversations/c1/messages?cursor=msg-0003", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	checkStatus(t, resp.StatusCode, 200)

	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	for i, m := range body.Messages {
		if m.ID >= "msg-0003" {
			t.Errorf("Message %s is not older than the cursor", m.ID)
		}
		if i > 0 && body.Messages[i-1].ID <= m.ID {
			t.Errorf("Messages are not sorted descending: %s before %s", body.Messages[i-1].ID, m.ID)
		}
	}
}

func checkStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("Got HTTP status %d, want %d", got, want)
	}
}

func checkBody(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	gotBody := normalizeJSON(t, resp.Body)
	wantBody := normalizeJSON(t, strings.NewReader(want))
	if gotBody != wantBody {
		t.Errorf("Body does not match\nGot\n  %s\n\nWant\n  %s", gotBody, wantBody)
	}
}

func normalizeJSON(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Could not read JSON: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "  ", "  "); err != nil {
		t.Fatalf("Could not indent JSON: %v", err)
	}
	return strings.TrimSpace(buf.String())
}
