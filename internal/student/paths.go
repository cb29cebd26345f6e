package student

import "github.com/abhisek/studywise/internal/docstore"

// AccountRef is users/{uid}.
func AccountRef(uid string) docstore.DocRef {
	return docstore.Doc("users", uid)
}

// ProfileRef is students/{uid}.
func ProfileRef(uid string) docstore.DocRef {
	return docstore.Doc("students", uid)
}

// QuizzesRef is students/{uid}/quizzes.
func QuizzesRef(uid string) docstore.CollectionRef {
	return ProfileRef(uid).Collection("quizzes")
}

// LessonsRef is students/{uid}/lessons.
func LessonsRef(uid string) docstore.CollectionRef {
	return ProfileRef(uid).Collection("lessons")
}

// CoursesRef is students/{uid}/courses.
func CoursesRef(uid string) docstore.CollectionRef {
	return ProfileRef(uid).Collection("courses")
}

// StatsRef is students/{uid}/stats/summary.
func StatsRef(uid string) docstore.DocRef {
	return ProfileRef(uid).Collection("stats").Doc("summary")
}
