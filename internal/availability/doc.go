// Package availability computes free/busy status and common free slots for a
// set of users from their calendars' events.
//
// All instants are compared as given and all day boundaries are built in
// Config.Location, which defaults to the server's local time zone. No zone
// normalization is applied, so slot boundaries follow the server clock.
//
// Each call performs three batched store reads (users by email, calendars by
// owner, events by calendar and range) followed by in-memory interval math.
// The engine holds no mutable state and is safe for concurrent use.
package availability
