package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessageTargets(t *testing.T) {
	byToken := buildMessage(&NotificationRequest{Token: "tok", Topic: "ignored", Title: "t"})
	assert.Equal(t, "tok", byToken.Token)
	assert.Empty(t, byToken.Topic)
	assert.Equal(t, "t", byToken.Notification.Title)

	byTopic := buildMessage(&NotificationRequest{Topic: HospitalTopic("h1"), Data: map[string]string{"k": "v"}})
	assert.Equal(t, "hospital_h1", byTopic.Topic)
	assert.Nil(t, byTopic.Notification)
	assert.Equal(t, "v", byTopic.Data["k"])
	assert.Equal(t, "high", byTopic.Android.Priority)
}
