package web

import (
	"errors"
	"net/http"

	"golang.org/x/text/language"

	"github.com/stb-lab/websettings/session"
)

// supported lists the UI languages; the first entry is the fallback.
var supported = []language.Tag{
	language.English,
	language.German,
	language.Russian,
}

var matcher = language.NewMatcher(supported)

// messages holds every user-visible string of the browser UI in one language.
type messages struct {
	LoginTitle         string
	LoginIntro         string
	CodeLabel          string
	LoginSubmit        string
	SettingsTitle      string
	SaveButton         string
	SubmittedTitle     string
	SubmittedBody      string
	ErrCodeRequired    string
	ErrInvalidKey      string
	ErrKeyExpired      string
	ErrSessionExpired  string
	ErrTooManyAttempts string
	ErrBadValue        string
}

var catalogs = map[language.Tag]messages{
	language.English: {
		LoginTitle:         "Device settings",
		LoginIntro:         "Enter the access code shown on your device.",
		CodeLabel:          "Access code",
		LoginSubmit:        "Continue",
		SettingsTitle:      "Settings",
		SaveButton:         "Save",
		SubmittedTitle:     "Saved",
		SubmittedBody:      "Your settings were sent to the device.",
		ErrCodeRequired:    "Please enter the access code.",
		ErrInvalidKey:      "This code is not valid. Codes can only be used once.",
		ErrKeyExpired:      "This code has expired. Restart the setup on your device.",
		ErrSessionExpired:  "The device has ended this session. Restart the setup on your device.",
		ErrTooManyAttempts: "Too many failed attempts. Please wait and try again.",
		ErrBadValue:        "One of the values is not allowed",
	},
	language.German: {
		LoginTitle:         "Geräteeinstellungen",
		LoginIntro:         "Geben Sie den auf Ihrem Gerät angezeigten Zugangscode ein.",
		CodeLabel:          "Zugangscode",
		LoginSubmit:        "Weiter",
		SettingsTitle:      "Einstellungen",
		SaveButton:         "Speichern",
		SubmittedTitle:     "Gespeichert",
		SubmittedBody:      "Ihre Einstellungen wurden an das Gerät gesendet.",
		ErrCodeRequired:    "Bitte geben Sie den Zugangscode ein.",
		ErrInvalidKey:      "Dieser Code ist ungültig. Codes können nur einmal verwendet werden.",
		ErrKeyExpired:      "Dieser Code ist abgelaufen. Starten Sie die Einrichtung am Gerät neu.",
		ErrSessionExpired:  "Das Gerät hat diese Sitzung beendet. Starten Sie die Einrichtung am Gerät neu.",
		ErrTooManyAttempts: "Zu viele Fehlversuche. Bitte warten Sie und versuchen Sie es erneut.",
		ErrBadValue:        "Einer der Werte ist nicht zulässig",
	},
	language.Russian: {
		LoginTitle:         "Настройки устройства",
		LoginIntro:         "Введите код доступа, показанный на вашем устройстве.",
		CodeLabel:          "Код доступа",
		LoginSubmit:        "Продолжить",
		SettingsTitle:      "Настройки",
		SaveButton:         "Сохранить",
		SubmittedTitle:     "Сохранено",
		SubmittedBody:      "Настройки отправлены на устройство.",
		ErrCodeRequired:    "Пожалуйста, введите код доступа.",
		ErrInvalidKey:      "Этот код недействителен. Код можно использовать только один раз.",
		ErrKeyExpired:      "Срок действия кода истёк. Начните настройку на устройстве заново.",
		ErrSessionExpired:  "Устройство завершило этот сеанс. Начните настройку на устройстве заново.",
		ErrTooManyAttempts: "Слишком много неудачных попыток. Подождите и попробуйте снова.",
		ErrBadValue:        "Одно из значений недопустимо",
	},
}

// messagesFor picks the catalog that best matches the Accept-Language header.
func messagesFor(r *http.Request) messages {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, index, _ := matcher.Match(tags...)
	return catalogs[supported[index]]
}

// authError maps a redemption failure to its localized explanation.
func (m messages) authError(err error) string {
	switch {
	case errors.Is(err, session.ErrKeyExpired):
		return m.ErrKeyExpired
	case errors.Is(err, session.ErrSessionExpired):
		return m.ErrSessionExpired
	default:
		return m.ErrInvalidKey
	}
}
