// Package http exposes the reservation services over a JSON API.
//
// The router exposes the following endpoints:
//   - POST /companies: registers a tenant and its first administrator. Public.
//   - POST /companies/join: signs an employee up with a certification code. Public.
//   - GET /companies/me: the caller's company. The certification code is only
//     returned to administrators.
//   - GET /rooms, POST /rooms, PUT /rooms/:roomID, DELETE /rooms/:roomID: the
//     room catalog exchanging the `roomDTO` payload defined in room_handler.go.
//     Listing is open to every member while mutations require ADMIN.
//   - GET /rooms/:roomID/reservations, POST /rooms/:roomID/reservations: room
//     bookings exchanging `reservationDTO`. A taken span answers 409 with the
//     DUPLICATED_TIME error code.
//   - GET /rooms/:roomID/timetable?date=YYYY-MM-DD: per-slot occupancy of a day.
//   - DELETE /reservations/:reservationID, GET /me/reservations.
//   - GET /users, POST /users, DELETE /users/:userID: employee management.
//   - GET /healthz: liveness. Public.
//
// Every endpoint except the public ones requires a principal,
// resolved by RequirePrincipal from the X-User-ID header or HTTP Basic
// credentials.
package http
