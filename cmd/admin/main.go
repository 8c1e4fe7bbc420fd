package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]
  rooms <nickname>              list the rooms of a user
  leave <nickname> <room_id>    remove a user from a room
  activate <room_id>            mark a room active
  deactivate <room_id>          mark a room inactive`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	directory := chathub.NewDirectory(storageSvc)
	ctx := context.Background()

	if err := run(ctx, directory, storageSvc, os.Args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, d *chathub.Directory, s storage.RoomStore, args []string) error {
	switch args[0] {
	case "rooms":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin rooms <nickname>")
		}
		return listRooms(ctx, d, s, args[1])
	case "leave":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin leave <nickname> <room_id>")
		}
		id, err := parseRoomID(args[2])
		if err != nil {
			return err
		}
		user, err := s.GetUserByNickname(ctx, args[1])
		if err != nil {
			return fmt.Errorf("user %q: %w", args[1], err)
		}
		if err := d.Leave(ctx, *user, id); err != nil {
			return err
		}
		fmt.Printf("User %s has left room %d.\n", user.Nickname, id)
	case "activate", "deactivate":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin %s <room_id>", args[0])
		}
		id, err := parseRoomID(args[1])
		if err != nil {
			return err
		}
		room, err := d.SetActive(ctx, id, args[0] == "activate")
		if err != nil {
			return err
		}
		fmt.Printf("Room %d (%s) active=%t.\n", room.ID, room.Name, room.Active)
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func listRooms(ctx context.Context, d *chathub.Directory, s storage.RoomStore, nickname string) error {
	user, err := s.GetUserByNickname(ctx, nickname)
	if err != nil {
		return fmt.Errorf("user %q: %w", nickname, err)
	}
	rooms, err := d.ListForUser(ctx, *user)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		fmt.Printf("%d\twith %s\tactive=%t\tmessages=%d\n", room.ID, room.Name, room.Active, len(room.Messages))
	}
	return nil
}

func parseRoomID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid room id %q", raw)
	}
	return uint(id), nil
}
