package model

import "time"

// SearchCriteria is the filter set a search session subscribed with.
// Events are pushed to a session only when they match its criteria.
//
// Fields:
//  HotelID  – hotel the search targets.
//  RoomType – optional room type filter; empty means all types.
//  CheckIn  – start of the searched interval (inclusive).
//  CheckOut – end of the searched interval (exclusive).
type SearchCriteria struct {
	HotelID  uint64    `json:"hotel_id"`
	RoomType RoomType  `json:"room_type,omitempty"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// SearchSession is a live subscription of an in-progress availability
// search.  Sessions are owned by the broadcast hub, never persisted, and
// expire after an inactivity window.
//
// Fields:
//  ID           – session identifier (UUID issued at subscribe time).
//  UserID       – user that opened the search, zero for guests.
//  Criteria     – hotel, interval and optional type filter.
//  SubscribedAt – when the session subscribed.
//  LastSeenAt   – last client activity; drives the inactivity sweep.
type SearchSession struct {
	ID           string         `json:"id"`
	UserID       uint64         `json:"user_id"`
	Criteria     SearchCriteria `json:"criteria"`
	SubscribedAt time.Time      `json:"subscribed_at"`
	LastSeenAt   time.Time      `json:"last_seen_at"`
}
