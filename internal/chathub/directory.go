package chathub

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"

	"github.com/samber/lo"
)

var (
	membersOnly     = storage.RoomLoad{Members: true}
	membersMessages = storage.RoomLoad{Members: true, Messages: true}
)

// Directory resolves pairwise rooms and derives what each viewer sees.
type Directory struct {
	Store storage.RoomStore
}

func NewDirectory(s storage.RoomStore) *Directory {
	return &Directory{Store: s}
}

func lookupErr(what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, what, err)
}

// ResolveOrCreate повертає кімнату пари (requester, peer), створюючи її при
// першому контакті. Унікальний PairKey гарантує одну кімнату на пару навіть
// при одночасних викликах: програвший INSERT перечитує кімнату переможця.
// Якщо хтось із пари раніше вийшов, його повертають у ту саму кімнату.
func (d *Directory) ResolveOrCreate(ctx context.Context, requester models.User, peerNickname string) (*models.ChatRoom, error) {
	peer, err := d.Store.GetUserByNickname(ctx, peerNickname)
	if err != nil {
		return nil, lookupErr(fmt.Sprintf("user %q", peerNickname), err)
	}
	if peer.ID == requester.ID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrInvalidRequest)
	}

	room, err := d.Store.FindRoomByPair(ctx, requester.ID, peer.ID, membersOnly)
	switch {
	case err == nil:
		room, err = d.rejoin(ctx, room, requester, *peer)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, lookupErr("room", err)
		}
		// the last member left while we were rejoining
	case !errors.Is(err, storage.ErrNotFound):
		return nil, lookupErr("room", err)
	}

	room = &models.ChatRoom{
		Name:    models.CanonicalLabel(requester.Nickname, peer.Nickname),
		PairKey: models.PairKey(requester.ID, peer.ID),
		Users:   []models.User{*peer, requester},
	}
	if createErr := d.Store.CreateRoom(ctx, room); createErr != nil {
		existing, err := d.Store.FindRoomByPair(ctx, requester.ID, peer.ID, membersOnly)
		if err != nil {
			return nil, fmt.Errorf("%w: create room: %w", ErrStore, createErr)
		}
		log.Printf("INFO: Room %d for %s was created concurrently, reusing it.", existing.ID, existing.PairKey)
		existing, err = d.rejoin(ctx, existing, requester, *peer)
		if err != nil {
			return nil, lookupErr("room", err)
		}
		return existing, nil
	}

	log.Printf("INFO: Created room %d between %s and %s.", room.ID, requester.Nickname, peer.Nickname)
	return d.FetchByID(ctx, room.ID, &requester, true)
}

// rejoin restores the pair's membership on an existing room and returns it
// labelled for requester. storage.ErrNotFound means the room is gone.
func (d *Directory) rejoin(ctx context.Context, room *models.ChatRoom, requester, peer models.User) (*models.ChatRoom, error) {
	missing := lo.Filter([]models.User{requester, peer}, func(u models.User, _ int) bool {
		return !room.HasMember(u.ID)
	})
	if len(missing) == 0 {
		room.ApplyViewerLabel(requester.Nickname)
		return room, nil
	}

	if err := d.Store.AddRoomMembers(ctx, room.ID, missing...); err != nil {
		return nil, err
	}
	log.Printf("INFO: Restored %d member(s) of room %d.", len(missing), room.ID)

	refreshed, err := d.Store.GetRoomByID(ctx, room.ID, membersOnly)
	if err != nil {
		return nil, err
	}
	refreshed.ApplyViewerLabel(requester.Nickname)
	return refreshed, nil
}

// ListForUser returns every room of user with members and history loaded.
func (d *Directory) ListForUser(ctx context.Context, user models.User) ([]models.ChatRoom, error) {
	rooms, err := d.Store.ListRoomsForUser(ctx, user.ID, membersMessages)
	if err != nil {
		return nil, lookupErr("rooms", err)
	}
	for i := range rooms {
		rooms[i].ApplyViewerLabel(user.Nickname)
	}
	return rooms, nil
}

// FetchByID loads a room with members and history. With a viewer the room
// must include them; filterLabel then swaps the canonical label for the
// viewer-facing one.
func (d *Directory) FetchByID(ctx context.Context, roomID uint, viewer *models.User, filterLabel bool) (*models.ChatRoom, error) {
	room, err := d.Store.GetRoomByID(ctx, roomID, membersMessages)
	if err != nil {
		return nil, lookupErr(fmt.Sprintf("room %d", roomID), err)
	}
	if viewer == nil {
		return room, nil
	}
	if !room.HasMember(viewer.ID) {
		return nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	if filterLabel {
		room.ApplyViewerLabel(viewer.Nickname)
	}
	return room, nil
}

// SetActive flips the active flag on a best-effort basis. A failed update is
// only logged; the current room is returned either way.
func (d *Directory) SetActive(ctx context.Context, roomID uint, active bool) (*models.ChatRoom, error) {
	room, err := d.Store.GetRoomByID(ctx, roomID, membersOnly)
	if err != nil {
		return nil, lookupErr(fmt.Sprintf("room %d", roomID), err)
	}
	if err := d.Store.SetRoomActive(ctx, roomID, active); err != nil {
		log.Printf("ERROR: Failed to set room %d active=%t: %v", roomID, active, err)
		return room, nil
	}
	log.Printf("INFO: Updated room %d activity to %t.", roomID, active)

	if refreshed, err := d.Store.GetRoomByID(ctx, roomID, membersOnly); err == nil {
		return refreshed, nil
	}
	room.Active = active
	return room, nil
}

// Leave removes user from the room. The last member leaving deletes the room.
func (d *Directory) Leave(ctx context.Context, user models.User, roomID uint) error {
	room, err := d.Store.GetRoomByID(ctx, roomID, membersOnly)
	if err != nil {
		return lookupErr(fmt.Sprintf("room %d", roomID), err)
	}
	if !room.HasMember(user.ID) {
		log.Printf("INFO: User %d is not a member of room %d, nothing to leave.", user.ID, roomID)
		return nil
	}

	log.Printf("INFO: Removing user %d from room %d.", user.ID, roomID)
	remaining, err := d.Store.RemoveRoomMember(ctx, roomID, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// the other member already took the room down
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: leave room %d: %w", ErrStore, roomID, err)
	}
	if remaining == 0 {
		log.Printf("INFO: Room %d has no members left and was deleted.", roomID)
	}
	return nil
}
