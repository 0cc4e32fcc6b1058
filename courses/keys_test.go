package courses

import (
	"testing"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/cache"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		key  cache.Key
		want string
	}{
		{"list", CourseListKey(), `["courses","list"]`},
		{"detail", CourseDetailKey("abc"), `["courses","detail","abc"]`},
		{"search", CourseSearchKey(apiclient.SearchParams{Query: " go ", Page: 2, Limit: 9}), `["courses","search",{"limit":9,"page":2,"query":"go"}]`},
		{"search default page", CourseSearchKey(apiclient.SearchParams{}), `["courses","search",{"page":1}]`},
		{"student enrollments", StudentEnrollmentsKey("A@B.com"), `["enrollments","student","a@b.com"]`},
		{"check", EnrollmentCheckKey("a@b.com", "c1"), `["enrollments","check",{"courseId":"c1","studentEmail":"a@b.com"}]`},
		{"admin enrollments", AdminEnrollmentsKey(), `["enrollments","admin"]`},
		{"roster", CourseStudentsKey("c1"), `["students","course","c1"]`},
		{"admin students", AdminStudentsKey(), `["students","admin"]`},
		{"all", AllKey(), `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("key = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKeys_Families(t *testing.T) {
	if !CourseSearchKey(apiclient.SearchParams{Page: 3}).HasPrefix(CoursesKey()) {
		t.Error("search pages must fall under the courses prefix")
	}
	if !CourseDetailKey("x").HasPrefix(CoursesKey()) {
		t.Error("details must fall under the courses prefix")
	}
	if CourseStudentsKey("x").HasPrefix(CoursesKey()) {
		t.Error("rosters must not fall under the courses prefix")
	}
}
