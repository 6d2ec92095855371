package storage

// Class is a stored class.
type Class struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lesson is a stored lesson as served by the API.
type Lesson struct {
	ID        int64  `json:"id"`
	ClassID   string `json:"classId"`
	Day       int    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	Room      string `json:"room"`
}

// Counts summarizes table sizes for readiness checks.
type Counts struct {
	Classes int `json:"classes"`
	Lessons int `json:"lessons"`
}
