package cluster_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/quaark/mlrun-remote-project/pkg/api/types/misc/rfctime"
	"github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster"
	k8smock "github.com/quaark/mlrun-remote-project/pkg/domain/platform/k8s/cluster/mock"
	"github.com/quaark/mlrun-remote-project/pkg/utils/cmp"
	"github.com/quaark/mlrun-remote-project/pkg/utils/retry"
	"github.com/quaark/mlrun-remote-project/pkg/utils/try"
	kubebatch "k8s.io/api/batch/v1"
	kubecore "k8s.io/api/core/v1"
	kubeevent "k8s.io/api/events/v1"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestK8sCluster_GetJob_with_mock(t *testing.T) {
	type When struct {
		Job       *kubebatch.Job
		GetJobErr error

		Pods        []kubecore.Pod
		FindPodsErr error

		Log      string
		LogError error

		DeleteJobErr error

		GetEvents    []kubeevent.Event
		GetEventsErr error
	}

	type Then struct {
		Name      string
		Namespace string
		Status    cluster.JobStatus

		LogSourcePodName string
	}

	const namespace = "fake-namespace"
	const domain = "fake.local"

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			ctx := context.Background()
			jobName := "fake-job"

			mockClient := k8smock.NewMockClient()
			mockClient.Impl.GetJob = func(ctx context.Context, ns string, n string) (*kubebatch.Job, error) {
				if ns != namespace {
					t.Errorf("unexpected namespace: (got, want) = (%s, %s)", ns, namespace)
				}
				if n != jobName {
					t.Errorf("unexpected job name: (got, want) = (%s, %s)", n, jobName)
				}
				return when.Job, when.GetJobErr
			}

			if when.GetJobErr == nil {
				mockClient.Impl.FindPods = func(ctx context.Context, ns string, ls cluster.LabelSelector) ([]kubecore.Pod, error) {
					if ns != namespace {
						t.Errorf("unexpected namespace: (got, want) = (%s, %s)", ns, namespace)
					}

					if want := cluster.LabelsToSelecor(when.Job.Spec.Selector.MatchLabels); !cmp.MapEqWith(ls, want, cluster.SelectorElement.Equal) {
						t.Errorf("unexpected label selector: (got, want) = (%v, %v)", ls, want)
					}

					return when.Pods, when.FindPodsErr
				}
				mockClient.Impl.Log = func(ctx context.Context, ns string, n string, c string) (io.ReadCloser, error) {
					if ns != namespace {
						t.Errorf("unexpected namespace: (got, want) = (%s, %s)", ns, namespace)
					}
					if n != then.LogSourcePodName {
						t.Errorf("unexpected pod name: (got, want) = (%s, %s)", n, then.LogSourcePodName)
					}
					if c != "main" {
						t.Errorf("unexpected container name: (got, want) = (%s, %s)", c, "main")
					}
					return io.NopCloser(strings.NewReader(when.Log)), when.LogError
				}
				mockClient.Impl.GetEvents = func(ctx context.Context, kind string, target kubeapimeta.ObjectMeta) ([]kubeevent.Event, error) {
					if kind != "Pod" {
						t.Errorf("unexpected kind: (got, want) = (%s, %s)", kind, "Pod")
					}
					if target.Namespace != namespace {
						t.Errorf("unexpected namespace: (got, want) = (%s, %s)", target.Namespace, namespace)
					}
					return when.GetEvents, when.GetEventsErr
				}

				deleteJobHasBeenCalled := false
				defer func() {
					if !deleteJobHasBeenCalled {
						t.Errorf("DeleteJob has not been called.")
					}
				}()
				mockClient.Impl.DeleteJob = func(ctx context.Context, ns string, n string) error {
					deleteJobHasBeenCalled = true
					if ns != namespace {
						t.Errorf("unexpected namespace: (got, want) = (%s, %s)", ns, namespace)
					}
					if n != jobName {
						t.Errorf("unexpected job name: (got, want) = (%s, %s)", n, jobName)
					}
					return when.DeleteJobErr
				}
			}
			testee := cluster.AttachCluster(mockClient, namespace, domain)

			got := <-testee.GetJob(
				ctx, retry.StaticBackoff(200*time.Millisecond), jobName,
			)
			if want := when.GetJobErr; want != nil {
				if got.Err == nil {
					t.Fatalf("error is expected, but got nil")
				} else if !errors.Is(got.Err, want) {
					t.Fatalf("unexpected error: %v", got.Err)
				}
				return
			} else if got.Err != nil {
				t.Fatalf("unexpected error: %v", got.Err)
			}

			if gotName := got.Value.Name(); gotName != then.Name {
				t.Errorf("name: not match: (got, want) = (%s, %s)", gotName, then.Name)
			}

			if gotNamespace := got.Value.Namespace(); gotNamespace != then.Namespace {
				t.Errorf("namespace: not match: (got, want) = (%s, %s)", gotNamespace, then.Namespace)
			}

			if gotStatus := got.Value.Status(ctx); gotStatus != then.Status {
				t.Errorf("status: not match: (got, want) = (%+v, %+v)", gotStatus, then.Status)
			}

			gotLog, err := got.Value.Log(ctx, "main")
			if when.LogError != nil {
				if err == nil {
					t.Fatalf("error is expected, but got nil")
				} else if !errors.Is(err, when.LogError) {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else {
				gotLogBytes := try.To(io.ReadAll(gotLog)).OrFatal(t)
				if string(gotLogBytes) != when.Log {
					t.Errorf("log: not match: (got, want) = (%s, %s)", string(gotLogBytes), when.Log)
				}
			}

			if gotErr := got.Value.Close(); gotErr != nil {
				if when.DeleteJobErr == nil {
					t.Fatalf("unexpected error: %v", gotErr)
				} else if !errors.Is(gotErr, when.DeleteJobErr) {
					t.Fatalf("unexpected error: %v", gotErr)
				}
			}
		}
	}

	t.Run("successed job", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{
					Conditions: []kubebatch.JobCondition{
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobFailed,
						},
						{
							Status: "True",
							Type:   kubebatch.JobComplete,
						},
					},
				},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodSucceeded,
						ContainerStatuses: []kubecore.ContainerStatus{
							{
								Name: "main",
								State: kubecore.ContainerState{
									Terminated: &kubecore.ContainerStateTerminated{ExitCode: 0},
								},
							},
						},
					},
				},
			},
			Log: `hello world
this is succeeded pod`,
		},
		Then{
			Name:      "fake-job",
			Namespace: namespace,
			Status:    cluster.JobStatus{Type: cluster.Succeeded},

			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("failed job", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{
					Conditions: []kubebatch.JobCondition{
						{
							Status: "True",
							Type:   kubebatch.JobFailed,
						},
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobComplete,
						},
					},
				},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodFailed,
						ContainerStatuses: []kubecore.ContainerStatus{
							{
								Name: "main",
								State: kubecore.ContainerState{
									Terminated: &kubecore.ContainerStateTerminated{ExitCode: 1, Reason: "Crashed"},
								},
							},
						},
					},
				},
			},
			Log: `hello world
this is failed pod
`,
		},
		Then{
			Name:             "fake-job",
			Namespace:        namespace,
			Status:           cluster.JobStatus{Type: cluster.Failed, Code: 1, Message: "(container main) Crashed"},
			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("Pending job: no pods", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{
					Conditions: []kubebatch.JobCondition{
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobFailed,
						},
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobComplete,
						},
					},
				},
			},
			Pods:     []kubecore.Pod{}, // empty
			LogError: cluster.ErrJobHasNoPods,
		},
		Then{
			Name:      "fake-job",
			Namespace: namespace,
			Status:    cluster.JobStatus{Type: cluster.Pending},
		},
	))

	t.Run("Pending job: no pods are found since error", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
			},
			FindPodsErr: errors.New("fake error"),
			LogError:    cluster.ErrJobHasNoPods,
		},
		Then{
			Name:      "fake-job",
			Namespace: namespace,
			Status:    cluster.JobStatus{Type: cluster.Pending},
		},
	))

	t.Run("Pending job: there are pods which is not started", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{
					Conditions: []kubebatch.JobCondition{
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobFailed,
						},
						{
							Status: "False", // should be ignored
							Type:   kubebatch.JobComplete,
						},
					},
				},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodPending,
					},
				},
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-2",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodPending,
					},
				},
			},
			GetEvents: []kubeevent.Event{
				{
					EventTime: kubeapimeta.NewMicroTime(try.To(rfctime.ParseRFC3339DateTime(
						"2024-09-15T12:13:14+09:00",
					)).OrFatal(t).Time()),
					ReportingController: "fake-scheduler",
					Reason:              "FailedScheduling",
					Note:                "0/1 nodes are available: 1 Insufficient memory",
					Type:                "Warning",
				},
				{
					EventTime: kubeapimeta.NewMicroTime(try.To(rfctime.ParseRFC3339DateTime(
						"2024-09-15T12:13:15+09:00",
					)).OrFatal(t).Time()),
					ReportingController: "fake-scheduler",
					Reason:              "ScheduleSuccess",
					Note:                "Pod scheduled",
					Type:                "Normal", // overtake the previous Warning event
				},
			},
			Log: `hello world
this is pending pod`,
		},
		Then{
			Name:             "fake-job",
			Namespace:        namespace,
			Status:           cluster.JobStatus{Type: cluster.Pending},
			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("Pending job: All pods are not scheduled", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodPending,
						Conditions: []kubecore.PodCondition{
							{
								Type:   kubecore.PodScheduled,
								Status: "False",
							},
						},
					},
				},
			},
			GetEvents: []kubeevent.Event{
				{
					EventTime: kubeapimeta.NewMicroTime(try.To(rfctime.ParseRFC3339DateTime(
						"2024-09-15T12:13:14+09:00",
					)).OrFatal(t).Time()),
					ReportingController: "fake-scheduler",
					Reason:              "FailedScheduling",
					Note:                "0/1 nodes are available: 1 Insufficient memory",
					Type:                "Warning",
				},
			},
			Log: `hello world
this is unscheduled pod`,
		},
		Then{
			Name:             "fake-job",
			Namespace:        namespace,
			Status:           cluster.JobStatus{Type: cluster.Pending},
			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("Stucking job: some Pod is not started AND Warning event is reported", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodPending,
						Conditions: []kubecore.PodCondition{
							{
								Type:   kubecore.PodScheduled,
								Status: "True",
							},
						},
					},
				},
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-2",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodRunning,
						Conditions: []kubecore.PodCondition{
							{
								Type:   kubecore.PodScheduled,
								Status: "True",
							},
						},
					},
				},
			},
			GetEvents: []kubeevent.Event{
				{
					EventTime: kubeapimeta.NewMicroTime(try.To(rfctime.ParseRFC3339DateTime(
						"2024-09-15T12:13:14+09:00",
					)).OrFatal(t).Time()),
					ReportingController: "fake-scheduler",
					Reason:              "VolumeMountFailure",
					Note:                "Permission denied",
					Type:                "Warning",
				},
			},
			Log: `hello world
this is stucking pod`,
		},
		Then{
			Name:      "fake-job",
			Namespace: namespace,
			Status: cluster.JobStatus{
				Type: cluster.Stucking, Code: 255,
				Message: "(pod fake-job-pod-1) [VolumeMountFailure] Permission denied",
			},
			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("Running job: some Pod is not started AND Warning event is not reported", theory(
		When{
			Job: &kubebatch.Job{
				ObjectMeta: kubeapimeta.ObjectMeta{
					Name:      "fake-job",
					Namespace: namespace,
				},
				Spec: kubebatch.JobSpec{
					Selector: &kubeapimeta.LabelSelector{
						MatchLabels: map[string]string{
							"controller":   "fake-job",
							"custom-label": "condition",
						},
					},
				},
				Status: kubebatch.JobStatus{},
			},
			Pods: []kubecore.Pod{
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-1",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodPending,
						Conditions: []kubecore.PodCondition{
							{
								Type:   kubecore.PodScheduled,
								Status: "True",
							},
						},
					},
				},
				{
					ObjectMeta: kubeapimeta.ObjectMeta{
						Name:      "fake-job-pod-2",
						Namespace: namespace,
					},
					Status: kubecore.PodStatus{
						Phase: kubecore.PodRunning,
						Conditions: []kubecore.PodCondition{
							{
								Type:   kubecore.PodScheduled,
								Status: "True",
							},
						},
					},
				},
			},
			GetEvents: []kubeevent.Event{
				{
					EventTime: kubeapimeta.NewMicroTime(try.To(rfctime.ParseRFC3339DateTime(
						"2024-09-15T12:13:14+09:00",
					)).OrFatal(t).Time()),
					ReportingController: "fake-scheduler",
					Reason:              "ScheduleSuccess",
					Note:                "Pod scheduled",
					Type:                "Normal",
				},
			},
			Log: `hello world
this is running pod`,
		},
		Then{
			Name:             "fake-job",
			Namespace:        namespace,
			Status:           cluster.JobStatus{Type: cluster.Running},
			LogSourcePodName: "fake-job-pod-1",
		},
	))

	t.Run("missing job", theory(
		When{
			GetJobErr: errors.New("fake error"),
		},
		Then{},
	))
}
