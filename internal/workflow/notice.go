package workflow

// Level classifies a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-visible message.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

var (
	noticePermission    = Notice{LevelWarn, "Permission Required", "Access is needed to use this feature."}
	noticeNoImage       = Notice{LevelWarn, "No Image Selected", "Please select an image first."}
	noticeNoPlant       = Notice{LevelInfo, "No Plant Found", "Unable to identify the plant."}
	noticeIdentifyError = Notice{LevelError, "Error", "An error occurred while identifying the plant."}
	noticeImageError    = Notice{LevelError, "Error", "An error occurred while saving the image."}
	noticeSaveError     = Notice{LevelError, "Error", "An error occurred while saving the plant."}
	noticeSaved         = Notice{LevelInfo, "Success", "Plant saved successfully!"}
)
