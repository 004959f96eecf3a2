package lockproto

// fakeRemote is a scripted Remote double: Push and PullRebase pop the
// next result off a queue (defaulting to success once the queue is
// drained), so tests can script exactly the push/rebase sequence the
// Sync protocol is meant to walk through. Like `git rm`, UnstageDelete
// also deletes the file from the working copy when fs is set.
type fakeRemote struct {
	fs FS

	staged   []string
	unstaged []string
	messages []string

	pushResults []bool
	pullResults []bool
}

func (r *fakeRemote) Stage(path string) error {
	r.staged = append(r.staged, path)
	return nil
}

func (r *fakeRemote) UnstageDelete(path string) error {
	r.unstaged = append(r.unstaged, path)
	if r.fs != nil {
		return r.fs.Remove(path)
	}
	return nil
}

func (r *fakeRemote) Commit(message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeRemote) Push() (bool, string) {
	return popOrDefault(&r.pushResults, true), ""
}

func (r *fakeRemote) PullRebase() (bool, string) {
	return popOrDefault(&r.pullResults, true), ""
}

func popOrDefault(queue *[]bool, def bool) bool {
	if len(*queue) == 0 {
		return def
	}
	v := (*queue)[0]
	*queue = (*queue)[1:]
	return v
}
