package sonar

import (
	"context"
	"fmt"
	"iter"
)

// UserPageSize is the number of users requested per page
const UserPageSize = 50

const usersPath = "/api/v2/users-management/users"

// CountUsers asks for an empty page and returns the reported user total
func (c *Client) CountUsers(ctx context.Context) (int, error) {
	var resp usersResponse
	if err := c.getJSON(ctx, usersPath+"?q=&pageSize=0", &resp); err != nil {
		return 0, err
	}
	return resp.Page.Total, nil
}

// UsersPage fetches one page of users
func (c *Client) UsersPage(ctx context.Context, index, size int) ([]User, error) {
	var resp usersResponse
	path := fmt.Sprintf("%s?q=&pageSize=%d&pageIndex=%d", usersPath, size, index)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UserPages walks ceil(total/UserPageSize) pages of users. The total is
// obtained beforehand with CountUsers, so a failed page does not stop the
// walk unless the consumer stops.
func (c *Client) UserPages(ctx context.Context, total int) iter.Seq2[Page[User], error] {
	fetch := func(ctx context.Context, index int) (Page[User], error) {
		users, err := c.UsersPage(ctx, index, UserPageSize)
		return Page[User]{Items: users, Total: total}, err
	}
	return Pages(ctx, fetch, TotalStrategy{PageSize: UserPageSize})
}
