// Package locationv1 is the device-facing wire contract: message types, the
// LocationService descriptor and a client, carried over gRPC with a JSON codec.
package locationv1

import "encoding/json"

// CreateMode selects what Create does with the new session.
type CreateMode int32

const (
	CreateMode_CREATE_ALONE CreateMode = 0
	CreateMode_CREATE_GROUP CreateMode = 1
	CreateMode_JOIN_GROUP   CreateMode = 2
)

type CreateRequest struct {
	Mode CreateMode `json:"mode"`
	// Duration of the share in seconds.
	Duration int64 `json:"duration"`
	// Interval between pushes in seconds.
	Interval  int32  `json:"interval"`
	Nickname  string `json:"nickname,omitempty"`
	GroupPin  string `json:"group_pin,omitempty"`
	Adoptable bool   `json:"adoptable,omitempty"`
}

type CreateResponse struct {
	SessionId string `json:"session_id"`
	ShareId   string `json:"share_id"`
	ViewUrl   string `json:"view_url"`
	GroupPin  string `json:"group_pin,omitempty"`
	Expire    int64  `json:"expire"`
	Interval  int32  `json:"interval"`
}

type PostLocationRequest struct {
	SessionId string  `json:"session_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	// Time is the fix time in epoch seconds.
	Time     float64  `json:"time"`
	Accuracy *float64 `json:"accuracy,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
}

type PostLocationResponse struct {
	// ShareIds are the shares the session currently feeds.
	ShareIds []string `json:"share_ids"`
}

type AdoptRequest struct {
	SessionId string `json:"session_id"`
	ShareId   string `json:"share_id"`
	Nickname  string `json:"nickname"`
	GroupPin  string `json:"group_pin"`
}

type AdoptResponse struct{}

type StopRequest struct {
	SessionId string `json:"session_id"`
}

type StopResponse struct{}

type FetchRequest struct {
	ShareId string `json:"share_id"`
}

// FetchResponse is the viewer payload. Points is a list of [lat, lon, time, acc, spd]
// arrays for solo shares and an object keyed by nickname for groups.
type FetchResponse struct {
	Type       int32           `json:"type"`
	Expire     int64           `json:"expire"`
	ServerTime float64         `json:"serverTime"`
	Interval   int32           `json:"interval"`
	Points     json.RawMessage `json:"points"`
}
