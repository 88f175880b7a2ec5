// SPDX-License-Identifier: EPL-2.0

// Package session models the host audio subsystem at the boundary the
// overdub engine consumes it: an activatable hardware session with a
// queryable route, typed port kinds, wireless profile states, and
// interruption/route-change notifications.
//
// The Negotiator implements the route stabilization protocol: after a
// wireless accessory changes profiles the input route can be absent or
// report a garbage format for over a second, so capture setup polls
// with a bounded retry budget (six attempts, 300 ms apart by default)
// and fails with a typed error naming the wireless limitation when the
// budget runs out.
package session
