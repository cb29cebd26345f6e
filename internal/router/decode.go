package router

import (
	"encoding/json"
	"fmt"
)

// Decode parses a JSON action of the form {"type": "<kind>", ...fields}.
func Decode(body []byte) (Request, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, fmt.Errorf("malformed action: %w", err)
	}

	var (
		req Request
		err error
	)
	switch head.Type {
	case KindProfileGet:
		req, err = decodeAs[GetProfile](body)
	case KindProfileUpsert:
		req, err = decodeAs[UpsertProfile](body)
	case KindQuizSave:
		req, err = decodeAs[SaveQuiz](body)
	case KindQuizGetAll:
		req, err = decodeAs[ListQuizzes](body)
	case KindQuizGetByTopic:
		req, err = decodeAs[ListQuizzesByTopic](body)
	case KindLessonSave:
		req, err = decodeAs[SaveLesson](body)
	case KindLessonGetAll:
		req, err = decodeAs[ListLessons](body)
	case KindLessonGetLast:
		req, err = decodeAs[LastLesson](body)
	case KindStatsGet:
		req, err = decodeAs[GetStats](body)
	case KindCourseSave:
		req, err = decodeAs[SaveCourse](body)
	case KindCourseGetAll:
		req, err = decodeAs[ListCourses](body)
	default:
		return nil, fmt.Errorf("Unknown action type: %s", head.Type)
	}
	return req, err
}

func decodeAs[A Request](body []byte) (Request, error) {
	var a A
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("malformed action: %w", err)
	}
	return a, nil
}
