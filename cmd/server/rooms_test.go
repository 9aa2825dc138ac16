package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchRooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rooms" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"rooms":[{"name":"lobby","members":["Ann","Bo"]}]}`))
	}))
	defer srv.Close()

	rooms, err := fetchRooms(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].Name != "lobby" || len(rooms[0].Members) != 2 {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestFetchRoomsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := fetchRooms(srv.URL); err == nil {
		t.Fatal("expected an error for 503")
	}
}
