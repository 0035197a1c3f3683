package constants

// Роли пользователей в рабочем пространстве.
// Иерархия: team_member < project_manager < admin.
// Workspace user roles. Hierarchy: team_member < project_manager < admin.
const (
	ROLE_TEAM_MEMBER     = "team_member"
	ROLE_PROJECT_MANAGER = "project_manager"
	ROLE_ADMIN           = "admin"
)

// Статусы присутствия пользователя.
// User presence statuses.
const (
	STATUS_AVAILABLE = "Available"
	STATUS_AWAY      = "Away"
	STATUS_BUSY      = "Busy"
)

// Статусы задач.
const (
	TASK_STATUS_TODO        = "Todo"
	TASK_STATUS_IN_PROGRESS = "In Progress"
	TASK_STATUS_COMPLETED   = "Completed"
)

// Приоритеты задач.
const (
	TASK_PRIORITY_LOW    = "Low"
	TASK_PRIORITY_MEDIUM = "Medium"
	TASK_PRIORITY_HIGH   = "High"
)

// Статусы проектов.
const (
	PROJECT_STATUS_ACTIVE   = "Active"
	PROJECT_STATUS_ARCHIVED = "Archived"
)

// Категории записей журнала истории.
// History log categories.
const (
	HISTORY_CATEGORY_GENERAL         = "General"
	HISTORY_CATEGORY_PROJECT         = "Project"
	HISTORY_CATEGORY_HOUR_ADJUSTMENT = "Hour Adjustment"
)

// Таблицы, для которых рассылаются realtime-события изменений.
// Tables for which realtime change events are delivered.
const (
	TABLE_USERS                = "users"
	TABLE_CONVERSATIONS        = "conversations"
	TABLE_CONVERSATION_MEMBERS = "conversation_members"
	TABLE_MESSAGES             = "messages"

	// TABLE_STORE - синтетический источник: view-model пользователя изменилась,
	// клиенту пора перечитать состояние.
	TABLE_STORE = "store"
)

// Типы realtime-событий. EVENT_ANY используется при подписке на все типы.
// Realtime event types. EVENT_ANY subscribes to all of them.
const (
	EVENT_INSERT = "INSERT"
	EVENT_UPDATE = "UPDATE"
	EVENT_DELETE = "DELETE"
	EVENT_ANY    = "*"
)

// Роли сообщений в чате с ассистентом.
const (
	ASSISTANT_ROLE_USER      = "user"
	ASSISTANT_ROLE_ASSISTANT = "assistant"
)

// Действия серверной функции ai-assistant.
const (
	ASSISTANT_ACTION_CHAT  = "lumen_chat"
	ASSISTANT_ACTION_IMAGE = "generate_image"
)

// TEMP_MESSAGE_PREFIX - префикс идентификатора оптимистичного сообщения.
// По нему локальная запись отличается от серверной до подтверждения.
// TEMP_MESSAGE_PREFIX marks an optimistic message id before the server confirms it.
const TEMP_MESSAGE_PREFIX = "temp-"

// DEFAULT_GROUP_NAME - имя группового чата, если пользователь оставил поле пустым.
const DEFAULT_GROUP_NAME = "Group Chat"
