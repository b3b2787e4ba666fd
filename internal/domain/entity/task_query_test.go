package entity

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(day int) *time.Time {
	d := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)

	return &d
}

func titles(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}

	return out
}

func fixture(owner uuid.UUID) []*Task {
	mk := func(title string, due *time.Time, status TaskStatus, priority TaskPriority) *Task {
		t := NewTask(owner, title, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		t.DueDate = due
		t.Status = status
		t.Priority = priority

		return t
	}

	return []*Task{
		mk("t1", date(12), TaskStatusPending, TaskPriorityLow),
		mk("t2", nil, TaskStatusCompleted, TaskPriorityHigh),
		mk("t3", date(10), TaskStatusPending, TaskPriorityHigh),
		mk("t4", date(10), TaskStatusInProgress, TaskPriorityMedium),
		mk("t5", nil, TaskStatusPending, TaskPriorityMedium),
	}
}

func firstPage() Page { return Page{Number: 1, Size: 10} }

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortDueDate, ParseSortKey("DueDate"))
	assert.Equal(t, SortDueDate, ParseSortKey(" duedate "))
	assert.Equal(t, SortPriority, ParseSortKey("PRIORITY"))
	assert.Equal(t, SortNone, ParseSortKey(""))
	assert.Equal(t, SortNone, ParseSortKey("title"))
}

func TestTaskQuery_NoSortKeepsInsertionOrder(t *testing.T) {
	owner := uuid.New()
	got := TaskQuery{Page: firstPage()}.Apply(owner, fixture(owner))

	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, titles(got))
}

func TestTaskQuery_Filters(t *testing.T) {
	owner := uuid.New()
	tasks := fixture(owner)

	pending := TaskQuery{Filter: TaskFilter{Status: Some(TaskStatusPending)}, Page: firstPage()}
	assert.Equal(t, []string{"t1", "t3", "t5"}, titles(pending.Apply(owner, tasks)))

	// Any time on the same UTC day matches.
	onDay := TaskQuery{Filter: TaskFilter{DueDate: Some(time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC))}, Page: firstPage()}
	assert.Equal(t, []string{"t3", "t4"}, titles(onDay.Apply(owner, tasks)))

	combined := TaskQuery{Filter: TaskFilter{
		Status:   Some(TaskStatusPending),
		DueDate:  Some(*date(10)),
		Priority: Some(TaskPriorityHigh),
	}, Page: firstPage()}
	assert.Equal(t, []string{"t3"}, titles(combined.Apply(owner, tasks)))

	// Low is the zero value but still an explicit constraint.
	low := TaskQuery{Filter: TaskFilter{Priority: Some(TaskPriorityLow)}, Page: firstPage()}
	assert.Equal(t, []string{"t1"}, titles(low.Apply(owner, tasks)))
}

func TestTaskQuery_SortByDueDate(t *testing.T) {
	owner := uuid.New()
	tasks := fixture(owner)

	asc := TaskQuery{Sort: TaskSort{Key: SortDueDate}, Page: firstPage()}
	assert.Equal(t, []string{"t3", "t4", "t1", "t2", "t5"}, titles(asc.Apply(owner, tasks)))

	desc := TaskQuery{Sort: TaskSort{Key: SortDueDate, Descending: true}, Page: firstPage()}
	assert.Equal(t, []string{"t1", "t3", "t4", "t2", "t5"}, titles(desc.Apply(owner, tasks)))
}

func TestTaskQuery_SortByPriority(t *testing.T) {
	owner := uuid.New()
	tasks := fixture(owner)

	asc := TaskQuery{Sort: TaskSort{Key: SortPriority}, Page: firstPage()}
	assert.Equal(t, []string{"t1", "t4", "t5", "t2", "t3"}, titles(asc.Apply(owner, tasks)))

	desc := TaskQuery{Sort: TaskSort{Key: SortPriority, Descending: true}, Page: firstPage()}
	assert.Equal(t, []string{"t2", "t3", "t4", "t5", "t1"}, titles(desc.Apply(owner, tasks)))
}

func TestTaskQuery_Paging(t *testing.T) {
	owner := uuid.New()
	var tasks []*Task
	for i := range 25 {
		tasks = append(tasks, NewTask(owner, fmt.Sprintf("t%02d", i), time.Now()))
	}

	page3 := TaskQuery{Page: Page{Number: 3, Size: 10}}.Apply(owner, tasks)
	assert.Equal(t, []string{"t20", "t21", "t22", "t23", "t24"}, titles(page3))

	past := TaskQuery{Page: Page{Number: 4, Size: 10}}.Apply(owner, tasks)
	assert.NotNil(t, past)
	assert.Empty(t, past)
}

func TestTaskQuery_DropsForeignTasks(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	tasks := append(fixture(owner), NewTask(other, "foreign", time.Now()))

	got := TaskQuery{Page: firstPage()}.Apply(owner, tasks)
	assert.NotContains(t, titles(got), "foreign")
	assert.Len(t, got, 5)
}

func TestTaskQuery_DoesNotMutateInput(t *testing.T) {
	owner := uuid.New()
	tasks := fixture(owner)

	TaskQuery{Sort: TaskSort{Key: SortPriority, Descending: true}, Page: firstPage()}.Apply(owner, tasks)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, titles(tasks))
}

func TestPage_Validate(t *testing.T) {
	require.NoError(t, Page{Number: 1, Size: 1}.Validate(100))
	require.NoError(t, Page{Number: 7, Size: 100}.Validate(100))
	require.NoError(t, Page{Number: 1, Size: 500}.Validate(0))

	assert.Error(t, Page{Number: 0, Size: 10}.Validate(100))
	assert.Error(t, Page{Number: -1, Size: 10}.Validate(100))
	assert.Error(t, Page{Number: 1, Size: 0}.Validate(100))
	assert.Error(t, Page{Number: 1, Size: 101}.Validate(100))
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
}

func TestPage_ValidateRejectsOffsetOverflow(t *testing.T) {
	assert.Error(t, Page{Number: 1 << 62, Size: 100}.Validate(100))
	assert.Error(t, Page{Number: math.MaxInt, Size: 2}.Validate(0))

	last := Page{Number: math.MaxInt/100 + 1, Size: 100}
	require.NoError(t, last.Validate(100))
	assert.Positive(t, last.Offset())
	assert.Error(t, Page{Number: last.Number + 1, Size: 100}.Validate(100))

	require.NoError(t, Page{Number: math.MaxInt, Size: 1}.Validate(0))
}

func TestTaskQuery_HugePageNumberIsEmpty(t *testing.T) {
	owner := uuid.New()

	got := TaskQuery{Page: Page{Number: 1 << 62, Size: 100}}.Apply(owner, fixture(owner))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	start, end := DayBounds(time.Date(2024, 3, 11, 5, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), end)
}
