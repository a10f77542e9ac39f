package broker

import "sync"

// RoomDirectory is the bidirectional mapping between rooms and member
// clients. Both directions mutate under one mutex so a client id
// appears in a room's member set if and only if that room appears in
// the client's room set. Rooms are created on first join and deleted
// when their last member leaves.
type RoomDirectory struct {
	mu       sync.RWMutex
	members  map[string]map[string]struct{} // room name -> client ids
	byClient map[string]map[string]struct{} // client id -> room names
}

// NewRoomDirectory constructs an empty directory.
func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		members:  make(map[string]map[string]struct{}),
		byClient: make(map[string]map[string]struct{}),
	}
}

// Join adds the client to the room, creating the room if absent.
// Joining a room the client is already in is a no-op.
func (d *RoomDirectory) Join(clientID, room string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.members[room] == nil {
		d.members[room] = make(map[string]struct{})
	}
	d.members[room][clientID] = struct{}{}

	if d.byClient[clientID] == nil {
		d.byClient[clientID] = make(map[string]struct{})
	}
	d.byClient[clientID][room] = struct{}{}
}

// Leave removes the client from the room and deletes the room if it
// becomes empty. Returns false when the client was not a member.
func (d *RoomDirectory) Leave(clientID, room string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leaveLocked(clientID, room)
}

func (d *RoomDirectory) leaveLocked(clientID, room string) bool {
	set, ok := d.members[room]
	if !ok {
		return false
	}
	if _, ok := set[clientID]; !ok {
		return false
	}

	delete(set, clientID)
	if len(set) == 0 {
		delete(d.members, room)
	}

	if rooms := d.byClient[clientID]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(d.byClient, clientID)
		}
	}
	return true
}

// MembersOf returns the room's member ids, empty if the room is absent.
func (d *RoomDirectory) MembersOf(room string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.members[room]))
	for id := range d.members[room] {
		ids = append(ids, id)
	}
	return ids
}

// RoomsOf returns the rooms the client currently belongs to.
func (d *RoomDirectory) RoomsOf(clientID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]string, 0, len(d.byClient[clientID]))
	for room := range d.byClient[clientID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Rooms lists the names of all rooms with at least one member.
func (d *RoomDirectory) Rooms() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.members))
	for name := range d.members {
		names = append(names, name)
	}
	return names
}

// RemoveClientFromAllRooms drops every membership the client holds,
// leaving no dangling entries in either direction.
func (d *RoomDirectory) RemoveClientFromAllRooms(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for room := range d.byClient[clientID] {
		d.leaveLocked(clientID, room)
	}
}
