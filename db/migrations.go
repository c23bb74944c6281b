package db

import (
	"fmt"

	"github.com/huyvu-developer/chat-app-BE/models"

	"gorm.io/gorm"
)

var secondaryIndexes = map[string]string{
	"idx_messages_conversation_sender": "CREATE INDEX IF NOT EXISTS idx_messages_conversation_sender ON messages (conversation_id, sender_id)",
	"idx_message_reads_user_message":   "CREATE INDEX IF NOT EXISTS idx_message_reads_user_message ON message_reads (user_id, message_id)",
	"idx_user_relations_user_field":    "CREATE INDEX IF NOT EXISTS idx_user_relations_user_field ON user_relations (user_id, field)",
}

// Migrate creates or updates every table owned by the chat core.
func Migrate(orm *gorm.DB) error {
	err := orm.AutoMigrate(
		&models.UserRelation{},
		&models.Conversation{},
		&models.ConversationMember{},
		&models.Message{},
		&models.ReadStatusEntry{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for name, stmt := range secondaryIndexes {
		if err := orm.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}
